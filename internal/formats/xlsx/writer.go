package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteRows creates a single-sheet .xlsx file keeping cell types: ints and
// floats become numbers, bools become booleans, nil cells stay empty.
func WriteRows(path, sheet string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("could not rename sheet: %w", err)
	}

	for r, row := range rows {
		for c, cell := range row {
			if cell == nil {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cellName, cell); err != nil {
				return fmt.Errorf("could not set cell %s: %w", cellName, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}
