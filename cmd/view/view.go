// Package view provides the data and chart views of an imported file.
package view

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/chart"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/record"
)

type dataResult struct {
	File    output.FileSummary `json:"file"`
	Columns []string           `json:"columns"`
	Rows    []record.Row       `json:"rows"`
}

type chartResult struct {
	File    output.FileSummary `json:"file"`
	Series  *chart.Series      `json:"series"`
	Summary chart.Summary      `json:"summary"`
}

// NewCommand returns the view command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show an imported file as a table or a chart",
		Long: `Shows the selected file (the most recently imported one) or the file
named by id, id prefix or name. Viewing never changes the history.`,
	}

	cmd.AddCommand(newDataCommand())
	cmd.AddCommand(newChartCommand())

	return cmd
}

func newDataCommand() *cobra.Command {
	var (
		limit  int
		csvOut bool
	)

	cmd := &cobra.Command{
		Use:   "data [id]",
		Short: "Show the rows of a file as a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, columns, rows, err := load(a, args)
			if err != nil {
				return err
			}
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}

			if csvOut {
				return xlsx.WriteCSV(os.Stdout, columns, rows)
			}
			if jsonFlag {
				return output.PrintJSON("view data", dataResult{
					File:    summary(rec, a),
					Columns: columns,
					Rows:    rows,
				})
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "%s", header(rec))
			output.WriteTable(&sb, columns, rows, a.Config.Output.MaxColWidth)
			return output.Show(sb.String())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many rows (0 for all)")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Write the rows as CSV instead of a table")
	return cmd
}

func newChartCommand() *cobra.Command {
	var (
		value string
		label string
		width int
	)

	cmd := &cobra.Command{
		Use:   "chart [id]",
		Short: "Show a numeric column of a file as a bar chart",
		Long: `Draws one bar per row. --value picks the numeric column (default: the
first numeric column), --label the column naming each bar (default: the first
non-numeric column).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			a, err := app.OpenForCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, columns, rows, err := load(a, args)
			if err != nil {
				return err
			}

			series, err := chart.Build(columns, rows, label, value)
			if err != nil {
				return err
			}
			sum, err := series.Summary()
			if err != nil {
				return fmt.Errorf("could not summarize %s: %w", series.ValueColumn, err)
			}

			if jsonFlag {
				return output.PrintJSON("view chart", chartResult{
					File:    summary(rec, a),
					Series:  series,
					Summary: sum,
				})
			}

			var sb strings.Builder
			sb.WriteString(header(rec))
			sb.WriteString(chart.Render(series, width))
			sb.WriteString(chart.RenderSummary(sum))
			sb.WriteString("\n")
			return output.Show(sb.String())
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Numeric column to chart")
	cmd.Flags().StringVar(&label, "label", "", "Column naming each bar")
	cmd.Flags().IntVar(&width, "width", 80, "Chart width in columns")
	return cmd
}

func load(a *app.App, args []string) (history.FileRecord, []string, []record.Row, error) {
	var (
		rec history.FileRecord
		err error
	)
	if len(args) == 1 {
		rec, err = a.History.Resolve(args[0])
		if err != nil {
			return rec, nil, nil, fmt.Errorf("%w — run 'sheetkit history list' to see ids", err)
		}
	} else {
		var ok bool
		rec, ok = a.History.Selected()
		if !ok {
			return rec, nil, nil, fmt.Errorf("no file selected — import one with 'sheetkit import <file.xlsx>'")
		}
	}

	columns, rows, err := a.Importer.Rows(rec)
	if err != nil {
		return rec, nil, nil, err
	}
	return rec, columns, rows, nil
}

func summary(rec history.FileRecord, a *app.App) output.FileSummary {
	sel, _ := a.History.Selected()
	return output.Summarize([]history.FileRecord{rec}, sel.ID)[0]
}

func header(rec history.FileRecord) string {
	name := rec.Name
	if rec.Sheet != "" {
		name += " / " + rec.Sheet
	}
	return fmt.Sprintf("%s\n\n", name)
}
