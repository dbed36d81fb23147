// Package importcmd provides the import command.
package importcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/progress"
	"github.com/klytics/sheetkit/internal/storage"
)

type checkResult struct {
	File    string           `json:"file"`
	Sheet   string           `json:"sheet"`
	Columns []string         `json:"columns"`
	Rows    int              `json:"rows"`
	Sheets  []xlsx.SheetInfo `json:"sheets"`
}

// NewCommand returns the import command.
func NewCommand() *cobra.Command {
	var (
		sheet string
		dir   string
		byRef bool
		check bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>...",
		Short: "Import spreadsheets into the history",
		Long: `Reads each .xlsx file, decodes its first sheet (or --sheet) into records
and adds it to the front of the history. Files are imported one at a time;
the first failure stops the batch and earlier files stay imported.

Relative names are resolved against --dir, or import.dir from the config.`,
		Example: `  sheetkit import users.xlsx
  sheetkit import --dir ~/reports q1.xlsx q2.xlsx
  sheetkit import --check *.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			for _, name := range args {
				if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
					return fmt.Errorf("expected an .xlsx file, got %q — use 'sheetkit import <file.xlsx>'", name)
				}
			}

			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("sheet") {
				a.Importer.Sheet = sheet
			}
			if dir != "" {
				a.Importer.Dir = dir
			}
			if byRef {
				a.Importer.KeepRows = false
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if check {
				return runCheck(ctx, a, args, jsonFlag)
			}

			bar := progress.New("Importing", len(args), jsonFlag)
			a.Importer.OnFile = bar.Step

			imported, err := a.Importer.Import(ctx, a.History, args...)
			bar.Finish(fmt.Sprintf("imported %d of %d file(s)", len(imported), len(args)))

			if err != nil {
				if len(imported) > 0 && !jsonFlag {
					printImported(imported)
				}
				if errors.Is(err, storage.ErrQuotaExceeded) {
					return fmt.Errorf("could not import: %w — remove files with 'sheetkit history remove <id>' or retry with --by-reference", err)
				}
				return fmt.Errorf("could not import: %w", err)
			}

			if jsonFlag {
				sel, _ := a.History.Selected()
				return output.PrintJSON("import", output.Summarize(imported, sel.ID))
			}

			printImported(imported)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Decode the named sheet instead of the first one")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory relative file names are read from")
	cmd.Flags().BoolVar(&byRef, "by-reference", false, "Store only the file path and re-read rows on view")
	cmd.Flags().BoolVar(&check, "check", false, "Decode every file and report without changing the history")

	return cmd
}

func runCheck(ctx context.Context, a *app.App, names []string, jsonFlag bool) error {
	results, err := a.Importer.ReadAll(ctx, names)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	checked := make([]checkResult, 0, len(names))
	for _, name := range names {
		sheets, err := xlsx.Inspect(a.Importer.Resolve(name))
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		recs := results[name]
		checked = append(checked, checkResult{
			File:    name,
			Sheet:   recs.Sheet,
			Columns: recs.Columns,
			Rows:    len(recs.Rows),
			Sheets:  sheets,
		})
	}

	if jsonFlag {
		return output.PrintJSON("import --check", checked)
	}

	green := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)
	for _, c := range checked {
		green.Printf("  ✓ %s", c.File)
		dim.Printf("  sheet %s, %d rows, %d columns\n", c.Sheet, c.Rows, len(c.Columns))
		if len(c.Sheets) > 1 {
			for _, sh := range c.Sheets {
				dim.Printf("      %-20s %d rows\n", sh.Name, sh.Rows)
			}
		}
	}
	return nil
}

func printImported(files []history.FileRecord) {
	green := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)
	for _, f := range files {
		green.Printf("Imported %s", f.Name)
		if f.ByReference() {
			dim.Printf("  (by reference) id %s\n", f.ID)
		} else {
			dim.Printf("  (%d rows) id %s\n", len(f.Rows), f.ID)
		}
	}
}
