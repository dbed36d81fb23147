// Package sample provides the command that writes the demo workbook.
package sample

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/formats/xlsx"
)

// NewCommand returns the sample command.
func NewCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sample <out.xlsx>",
		Short: "Write a small demo workbook to try sheetkit with",
		Long:  "Writes a \"Users\" sheet with ID, Name, Age, Email and Department columns.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
				return fmt.Errorf("output must end in .xlsx, got %q", path)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists — pass --force to overwrite", path)
			}

			if err := xlsx.WriteSample(path); err != nil {
				return err
			}

			color.New(color.FgGreen).Printf("Wrote %s", path)
			color.New(color.FgHiBlack).Printf("  (%d rows)\n", len(xlsx.SampleRows())-1)
			fmt.Printf("Next: sheetkit import %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
