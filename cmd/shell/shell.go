// Package shell provides the "sheetkit shell" interactive REPL command.
package shell

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	shellpkg "github.com/klytics/sheetkit/internal/shell"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var evalCmd string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive sheetkit shell",
		Long: `Start an interactive REPL that keeps the history open for the session.

Import files, select one, and switch between its data and chart views
without re-reading storage. Tab completion covers commands and file names.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			session := shellpkg.NewSession(a.History, a.Importer)
			session.MaxColWidth = a.Config.Output.MaxColWidth

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if evalCmd != "" {
				output, err := session.Eval(ctx, evalCmd)
				fmt.Print(output)
				return err
			}
			return session.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single shell command and exit")
	return cmd
}
