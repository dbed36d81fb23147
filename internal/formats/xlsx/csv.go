package xlsx

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/klytics/sheetkit/internal/record"
)

// WriteCSV writes a header line of columns followed by one line per row.
// Absent and null cells are written empty.
func WriteCSV(w io.Writer, columns []string, rows []record.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("could not write CSV header: %w", err)
	}

	line := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			line[i] = row.Get(col).String()
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("could not write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
