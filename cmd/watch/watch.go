// Package watch provides the "sheetkit watch" command, which imports
// spreadsheets as they appear in a directory.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	w "github.com/klytics/sheetkit/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		pattern   string
		recursive bool
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "watch <directory> [directory...]",
		Short: "Import spreadsheets into history as they are saved",
		Long: `Watches directories for new or modified .xlsx files. Once a file has been
quiet for the debounce interval it is imported and becomes the selected file.

Example:
  sheetkit watch ~/Downloads
  sheetkit watch ./reports --pattern 'sales_*.xlsx' -r`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			interval := a.Config.Debounce()
			if cmd.Flags().Changed("debounce") {
				interval = time.Duration(debounce) * time.Millisecond
			}

			watcher, err := w.New(w.Config{
				Directories: args,
				Pattern:     pattern,
				Recursive:   recursive,
				Debounce:    interval,
			})
			if err != nil {
				return err
			}
			watcher.Logger = a.Logger

			watcher.Handler = func(ctx context.Context, path string) (string, error) {
				imported, err := a.Importer.Import(ctx, a.History, path)
				if err != nil {
					return "", err
				}
				return imported[0].ID, nil
			}

			enc := json.NewEncoder(os.Stdout)
			watcher.OnEvent = func(e w.Event) {
				if jsonFlag {
					enc.Encode(e)
					return
				}
				ts := e.Time.Format("15:04:05")
				if e.Status == "imported" {
					color.New(color.FgGreen).Printf("[%s] imported %s", ts, e.Path)
					color.New(color.FgHiBlack).Printf("  id %s\n", e.FileID)
				} else {
					color.New(color.FgRed).Printf("[%s] %s: %s\n", ts, e.Path, e.Error)
				}
			}

			if !jsonFlag {
				fmt.Printf("Watching %d directory(ies) for %s\n", len(args), watcher.Config.Pattern)
				fmt.Println("Press Ctrl+C to stop")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := watcher.Start(ctx); err != nil {
				return err
			}

			if !jsonFlag {
				fmt.Printf("\nStopped. %d file(s) processed.\n", watcher.GetStatus().EventCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "*.xlsx", "Glob matched against file names")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Quiet period in milliseconds before a file is imported")

	return cmd
}
