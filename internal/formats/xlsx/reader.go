// Package xlsx decodes .xlsx workbooks into typed records and writes simple
// workbooks back out.
package xlsx

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// SheetInfo describes one worksheet without decoding its cells.
type SheetInfo struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// Inspect lists the sheets of the file at path. Rows counts the rows holding
// at least one non-empty cell, header included; Columns is the widest row,
// counted from the leftmost used column.
func Inspect(path string) ([]SheetInfo, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheets []SheetInfo
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}
		info := SheetInfo{Name: name}
		_, left, _ := usedRange(rows)
		for _, row := range rows {
			if blank(row) {
				continue
			}
			info.Rows++
			info.Columns = max(info.Columns, len(row)-left)
		}
		sheets = append(sheets, info)
	}
	return sheets, nil
}

func openFile(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	return f, nil
}

func openBytes(data []byte) (*excelize.File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	return f, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
