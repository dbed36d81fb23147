package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/record"
)

// DefaultMaxColWidth caps table columns when no width is configured.
const DefaultMaxColWidth = 40

// WriteTable prints rows as an aligned table with a bold header row.
func WriteTable(w io.Writer, columns []string, rows []record.Row, maxWidth int) {
	dim := color.New(color.FgHiBlack)

	if len(columns) == 0 {
		dim.Fprintln(w, "  (empty)")
		return
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, col := range columns {
			cells[i][j] = row.Get(col).String()
		}
	}

	writeGrid(w, columns, cells, maxWidth)
	dim.Fprintf(w, "  (%d rows)\n", len(rows))
}

// WriteHistory prints the history list, marking the selected file.
func WriteHistory(w io.Writer, files []history.FileRecord, selectedID string) {
	dim := color.New(color.FgHiBlack)
	if len(files) == 0 {
		dim.Fprintln(w, "  No files in history — run 'sheetkit import <file.xlsx>'")
		return
	}

	cells := make([][]string, len(files))
	for i, f := range files {
		mark := ""
		if f.ID == selectedID {
			mark = "*"
		}
		rows := fmt.Sprintf("%d", len(f.Rows))
		if f.ByReference() {
			rows = "ref"
		}
		cells[i] = []string{mark, f.ID, f.Name, f.Sheet, rows, f.ImportedAt.Local().Format(time.DateTime)}
	}

	writeGrid(w, []string{"", "ID", "NAME", "SHEET", "ROWS", "IMPORTED"}, cells, 0)
}

func writeGrid(w io.Writer, header []string, cells [][]string, maxWidth int) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxColWidth
	}

	colWidths := make([]int, len(header))
	for j, h := range header {
		colWidths[j] = utf8.RuneCountInString(h)
	}
	for _, row := range cells {
		for j, cell := range row {
			if n := utf8.RuneCountInString(cell); n > colWidths[j] {
				colWidths[j] = n
			}
		}
	}

	for i := range colWidths {
		if colWidths[i] > maxWidth {
			colWidths[i] = maxWidth
		}
		if colWidths[i] < 1 {
			colWidths[i] = 1
		}
	}

	printRow(w, header, colWidths, color.New(color.Bold, color.FgCyan))

	dim := color.New(color.FgHiBlack)
	dim.Fprint(w, "  ")
	for j, width := range colWidths {
		if j > 0 {
			dim.Fprint(w, "+-")
		}
		dim.Fprint(w, strings.Repeat("-", width+1))
	}
	dim.Fprintln(w)

	for _, row := range cells {
		printRow(w, row, colWidths, nil)
	}
}

func printRow(w io.Writer, row []string, colWidths []int, style *color.Color) {
	fmt.Fprint(w, "  ")
	for j := range colWidths {
		if j > 0 {
			fmt.Fprint(w, "| ")
		}
		cell := ""
		if j < len(row) {
			cell = strings.ReplaceAll(row[j], "\n", " ")
		}
		r := []rune(cell)
		if len(r) > colWidths[j] {
			cell = string(r[:colWidths[j]-1]) + "~"
			r = []rune(cell)
		}
		padded := cell + strings.Repeat(" ", colWidths[j]-len(r)+1)
		if style != nil {
			style.Fprint(w, padded)
		} else {
			fmt.Fprint(w, padded)
		}
	}
	fmt.Fprintln(w)
}
