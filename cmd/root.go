// Package cmd contains all CLI commands for the sheetkit binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/cmd/browse"
	"github.com/klytics/sheetkit/cmd/completion"
	cmdconfig "github.com/klytics/sheetkit/cmd/config"
	"github.com/klytics/sheetkit/cmd/doctor"
	cmdhistory "github.com/klytics/sheetkit/cmd/history"
	"github.com/klytics/sheetkit/cmd/importcmd"
	"github.com/klytics/sheetkit/cmd/sample"
	"github.com/klytics/sheetkit/cmd/serve"
	cmdshell "github.com/klytics/sheetkit/cmd/shell"
	"github.com/klytics/sheetkit/cmd/version"
	"github.com/klytics/sheetkit/cmd/view"
	cmdwatch "github.com/klytics/sheetkit/cmd/watch"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	store      string
	storePath  string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetkit",
		Short: "Load, keep and view spreadsheets from your terminal",
		Long: `sheetkit — a history of the spreadsheets you have looked at.

Import .xlsx files, switch between previously imported files and view them
as a table or a bar chart from the CLI, a shell, a TUI or a local web page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&store, "store", "", "History storage backend: file | sqlite | memory")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Path of the history file or database")

	// Register subcommands
	rootCmd.AddCommand(importcmd.NewCommand())
	rootCmd.AddCommand(cmdhistory.NewCommand())
	rootCmd.AddCommand(view.NewCommand())
	rootCmd.AddCommand(sample.NewCommand())
	rootCmd.AddCommand(cmdshell.NewCommand())
	rootCmd.AddCommand(browse.NewCommand())
	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
