// Package history provides CLI commands for the import history.
package history

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/output"
)

// NewCommand returns the history command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, remove and export imported files",
		Long:  "Manage the persisted history of imported spreadsheets, most recent first.",
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newRemoveCommand())
	cmd.AddCommand(newClearCommand())
	cmd.AddCommand(newExportCommand())

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List imported files, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			files := a.History.Files()
			sel, _ := a.History.Selected()

			if jsonFlag {
				return output.PrintJSON("history list", output.Summarize(files, sel.ID))
			}

			output.WriteHistory(os.Stdout, files, sel.ID)
			return nil
		},
	}
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove files from the history",
		Long:    "Removes files by id, unique id prefix or name. The history is saved after each removal.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var removed []string
			for _, ref := range args {
				rec, err := a.History.Resolve(ref)
				if err != nil {
					return fmt.Errorf("%w — run 'sheetkit history list' to see ids", err)
				}
				if err := a.History.RemoveFile(rec.ID); err != nil {
					return err
				}
				removed = append(removed, rec.ID)
				if !jsonFlag {
					color.New(color.FgGreen).Printf("Removed %s", rec.Name)
					color.New(color.FgHiBlack).Printf("  id %s\n", rec.ID)
				}
			}

			if jsonFlag {
				return output.PrintJSON("history remove", removed)
			}
			return nil
		},
	}
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every file from the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n := a.History.Len()
			if err := a.History.Clear(); err != nil {
				return err
			}

			if jsonFlag {
				return output.PrintJSON("history clear", map[string]int{"removed": n})
			}
			fmt.Printf("Cleared %d file(s) from history\n", n)
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full history, rows included, as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("could not create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if err := Export(w, a.History.Files(), format); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(os.Stderr, "Exported %d file(s) to %s\n", a.History.Len(), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json | yaml")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

// Export writes files in the given format.
func Export(w io.Writer, files []history.FileRecord, format string) error {
	if files == nil {
		files = []history.FileRecord{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(files); err != nil {
			return fmt.Errorf("could not encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q — use json or yaml", format)
	}
}
