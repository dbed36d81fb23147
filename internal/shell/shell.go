// Package shell provides the interactive sheetkit REPL. A session keeps one
// history store open, so selection survives between commands.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/sheetkit/internal/chart"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/importer"
	"github.com/klytics/sheetkit/internal/output"
)

// ErrExit is returned by Eval for "exit" and "quit".
var ErrExit = errors.New("exit")

// Session manages an interactive shell session over one history store.
type Session struct {
	History  *history.Store
	Importer *importer.Importer

	MaxColWidth int
	ChartWidth  int

	LastOutput     string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands is the list of shell commands for completion.
	KnownCommands []string
}

// NewSession creates a new interactive session.
func NewSession(store *history.Store, im *importer.Importer) *Session {
	home, _ := os.UserHomeDir()

	return &Session{
		History:     store,
		Importer:    im,
		MaxColWidth: output.DefaultMaxColWidth,
		ChartWidth:  80,
		HistoryFile: filepath.Join(home, ".sheetkit", "shell_history"),
		StartTime:   time.Now(),
		KnownCommands: []string{
			"list", "import", "select", "remove", "data", "chart",
			"clear", "history", "help", "exit", "quit",
		},
	}
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	os.MkdirAll(filepath.Dir(s.HistoryFile), 0755)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("sheetkit — interactive shell")
	fmt.Printf("%d file(s) in history. Type 'help' for commands, 'exit' to quit.\n\n", s.History.Len())

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.CommandHistory = append(s.CommandHistory, line)

		out, err := s.Eval(ctx, line)
		if errors.Is(err, ErrExit) {
			fmt.Printf("\nSession ended. %d commands run in %s.\n",
				len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
			return nil
		}
		if out != "" {
			fmt.Print(out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Println()
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		rl.SetPrompt(s.prompt())
	}

	return nil
}

// Eval runs a single command line and returns its output.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}

	var sb strings.Builder
	err := s.dispatch(ctx, &sb, args[0], args[1:])
	s.LastOutput = sb.String()
	return s.LastOutput, err
}

func (s *Session) dispatch(ctx context.Context, sb *strings.Builder, name string, args []string) error {
	switch name {
	case "exit", "quit":
		return ErrExit
	case "help":
		s.writeHelp(sb)
	case "history":
		for i, c := range s.CommandHistory {
			fmt.Fprintf(sb, "  %d  %s\n", i+1, c)
		}
	case "list", "ls":
		sel, _ := s.History.Selected()
		output.WriteHistory(sb, s.History.Files(), sel.ID)
	case "import":
		if len(args) == 0 {
			return fmt.Errorf("usage: import <file.xlsx>...")
		}
		imported, err := s.Importer.Import(ctx, s.History, args...)
		for _, f := range imported {
			if f.ByReference() {
				fmt.Fprintf(sb, "Imported %s (by reference) id %s\n", f.Name, f.ID)
			} else {
				fmt.Fprintf(sb, "Imported %s (%d rows) id %s\n", f.Name, len(f.Rows), f.ID)
			}
		}
		return err
	case "select":
		if len(args) != 1 {
			return fmt.Errorf("usage: select <id|name>")
		}
		rec, err := s.History.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := s.History.SelectByID(rec.ID); err != nil {
			return err
		}
		fmt.Fprintf(sb, "Selected %s\n", rec.Name)
	case "remove", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: remove <id|name>")
		}
		rec, err := s.History.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := s.History.RemoveFile(rec.ID); err != nil {
			return err
		}
		fmt.Fprintf(sb, "Removed %s\n", rec.Name)
	case "clear":
		n := s.History.Len()
		if err := s.History.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(sb, "Cleared %d file(s)\n", n)
	case "data":
		return s.writeData(sb, args)
	case "chart":
		return s.writeChart(sb, args)
	default:
		return fmt.Errorf("unknown command %q — type 'help'", name)
	}
	return nil
}

func (s *Session) writeData(sb *strings.Builder, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: data [id|name]")
	}
	rec, err := s.target(args)
	if err != nil {
		return err
	}
	columns, rows, err := s.Importer.Rows(rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(sb, "%s\n", rec.Name)
	output.WriteTable(sb, columns, rows, s.MaxColWidth)
	return nil
}

// writeChart accepts "chart [id|name] [--value col] [--label col]".
func (s *Session) writeChart(sb *strings.Builder, args []string) error {
	var ref, value, label string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--value", "--label":
			if i+1 >= len(args) {
				return fmt.Errorf("%s needs a column name", args[i])
			}
			if args[i] == "--value" {
				value = args[i+1]
			} else {
				label = args[i+1]
			}
			i++
		default:
			if ref != "" {
				return fmt.Errorf("usage: chart [id|name] [--value col] [--label col]")
			}
			ref = args[i]
		}
	}

	var refs []string
	if ref != "" {
		refs = []string{ref}
	}
	rec, err := s.target(refs)
	if err != nil {
		return err
	}
	columns, rows, err := s.Importer.Rows(rec)
	if err != nil {
		return err
	}

	series, err := chart.Build(columns, rows, label, value)
	if err != nil {
		return err
	}
	sum, err := series.Summary()
	if err != nil {
		return err
	}

	fmt.Fprintf(sb, "%s\n", rec.Name)
	sb.WriteString(chart.Render(series, s.ChartWidth))
	sb.WriteString(chart.RenderSummary(sum))
	sb.WriteString("\n")
	return nil
}

func (s *Session) target(args []string) (history.FileRecord, error) {
	if len(args) == 1 {
		return s.History.Resolve(args[0])
	}
	rec, ok := s.History.Selected()
	if !ok {
		return rec, fmt.Errorf("no file selected — import one with 'import <file.xlsx>'")
	}
	return rec, nil
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return s.KnownCommands
	}

	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, c := range s.KnownCommands {
			if strings.HasPrefix(c, parts[0]) {
				matches = append(matches, c)
			}
		}
		sort.Strings(matches)
		return matches
	}

	switch parts[0] {
	case "select", "remove", "data", "chart":
	default:
		return nil
	}

	prefix := ""
	if !strings.HasSuffix(input, " ") {
		prefix = parts[len(parts)-1]
	}
	var matches []string
	for _, ref := range s.fileRefs("") {
		if strings.HasPrefix(ref, prefix) {
			matches = append(matches, ref)
		}
	}
	return matches
}

// fileRefs lists the names and ids of known files.
func (s *Session) fileRefs(string) []string {
	var refs []string
	for _, f := range s.History.Files() {
		refs = append(refs, f.Name, f.ID)
	}
	return refs
}

func (s *Session) prompt() string {
	if rec, ok := s.History.Selected(); ok {
		return fmt.Sprintf("sheetkit [%s]> ", rec.Name)
	}
	return "sheetkit> "
}

func (s *Session) writeHelp(sb *strings.Builder) {
	sb.WriteString("Available commands:\n\n")
	sb.WriteString("  list                     — list imported files, * marks the selection\n")
	sb.WriteString("  import <file.xlsx>...    — import files, most recent becomes selected\n")
	sb.WriteString("  select <id|name>         — select a file\n")
	sb.WriteString("  remove <id|name>         — remove a file from history\n")
	sb.WriteString("  data [id|name]           — show the rows of the selected file\n")
	sb.WriteString("  chart [id|name] [--value col] [--label col]\n")
	sb.WriteString("                           — show a bar chart of a numeric column\n")
	sb.WriteString("  clear                    — remove every file\n")
	sb.WriteString("  history                  — show command history\n")
	sb.WriteString("  exit                     — exit the shell\n")
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, c := range s.KnownCommands {
		switch c {
		case "select", "remove", "data", "chart":
			items = append(items, readline.PcItem(c, readline.PcItemDynamic(s.fileRefs)))
		default:
			items = append(items, readline.PcItem(c))
		}
	}
	return items
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
