package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetkit/internal/record"
)

// Records is one sheet decoded into header-keyed rows.
type Records struct {
	Sheet   string       `json:"sheet"`
	Columns []string     `json:"columns"`
	Rows    []record.Row `json:"rows"`
}

// DecodeFile decodes a sheet of the file at path. An empty sheet name
// selects the first sheet.
func DecodeFile(path, sheet string) (*Records, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decode(f, sheet)
}

// DecodeBytes decodes a sheet of an in-memory .xlsx file.
func DecodeBytes(data []byte, sheet string) (*Records, error) {
	f, err := openBytes(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decode(f, sheet)
}

// decode turns the first non-blank row into column names and every later
// non-blank row into a record. Rows and columns before the used range are
// ignored, so a table may start anywhere on the sheet.
func decode(f *excelize.File, sheet string) (*Records, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("sheet %q not found — available sheets: %v", sheet, f.GetSheetList())
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", sheet, err)
	}

	out := &Records{Sheet: sheet, Columns: []string{}, Rows: []record.Row{}}
	top, left, ok := usedRange(rows)
	if !ok {
		return out, nil
	}

	cols := newColumnNamer()
	for _, h := range rows[top][left:] {
		out.Columns = append(out.Columns, cols.name(h))
	}

	for r := top + 1; r < len(rows); r++ {
		if blank(rows[r]) {
			continue
		}
		row := make(record.Row, len(rows[r]))
		for c := left; c < len(rows[r]); c++ {
			raw := rows[r][c]
			if raw == "" {
				continue
			}
			for c-left >= len(out.Columns) {
				out.Columns = append(out.Columns, cols.name(""))
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("could not read cell %s: %w", cell, err)
			}
			row[out.Columns[c-left]] = cellValue(typ, raw)
		}
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

// usedRange returns the index of the first non-blank row and the leftmost
// non-empty column across all rows. ok is false for an empty sheet.
func usedRange(rows [][]string) (top, left int, ok bool) {
	top, left = -1, -1
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			if top < 0 {
				top = r
			}
			if left < 0 || c < left {
				left = c
			}
			break
		}
	}
	return top, left, top >= 0
}

func cellValue(typ excelize.CellType, raw string) record.Value {
	switch typ {
	case excelize.CellTypeBool:
		return record.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return record.Number(f)
		}
	}
	return record.String(raw)
}

// columnNamer names header cells: blanks become __EMPTY, __EMPTY_1, ...
// and repeated names get _1, _2 suffixes.
type columnNamer struct {
	seen  map[string]int
	empty int
}

func newColumnNamer() *columnNamer {
	return &columnNamer{seen: make(map[string]int)}
}

func (n *columnNamer) name(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		header = "__EMPTY"
		if n.empty > 0 {
			header = fmt.Sprintf("__EMPTY_%d", n.empty)
		}
		n.empty++
	}

	name := header
	for {
		count, ok := n.seen[name]
		if !ok {
			break
		}
		n.seen[name] = count + 1
		name = fmt.Sprintf("%s_%d", header, count+1)
	}
	n.seen[name] = 0
	return name
}
