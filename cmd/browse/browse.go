// Package browse provides the "sheetkit browse" full-screen browser command.
package browse

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/tui"
)

// NewCommand creates the "browse" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse imported spreadsheets full screen",
		Long: `Open a full-screen browser over the history.

The file list on the left follows the selection. The right pane shows the
selected file as a table or as a bar chart. Press i to import a file,
d to remove one and q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			// Log lines would tear the alternate screen.
			a.Importer.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

			return tui.Run(a.History, a.Importer, a.Config.Output.MaxColWidth)
		},
	}
}
