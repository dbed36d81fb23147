// Package serve provides the "sheetkit serve" local web UI command.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/server"
)

// NewCommand creates the "serve" command.
func NewCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the history as a local web UI and JSON API",
		Long: `Starts an HTTP server over the history.

Pages:
  /data     the selected file as a table
  /chart    the selected file as a bar chart

API:
  GET    /api/files             list files
  POST   /api/files             import an uploaded workbook (multipart "file")
  GET    /api/files/{id}        one file with its rows
  DELETE /api/files/{id}        remove a file
  PUT    /api/selection/{id}    select a file

The default address comes from serve.addr and binds to loopback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("addr") {
				addr = a.Config.Serve.Addr
			}

			srv, err := server.New(a.History, a.Importer, a.Logger)
			if err != nil {
				return err
			}
			srv.MaxColWidth = a.Config.Output.MaxColWidth

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			fmt.Printf("Serving on http://%s (Ctrl+C to stop)\n", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Address to listen on")
	return cmd
}
