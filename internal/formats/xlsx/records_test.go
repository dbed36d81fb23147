package xlsx

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetkit/internal/record"
)

func writeRows(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := WriteRows(path, sheet, rows); err != nil {
		t.Fatalf("WriteRows failed: %v", err)
	}
	return path
}

type testSheet struct {
	name string
	rows [][]any
}

// writeSheets writes a workbook with one sheet per entry, in order.
func writeSheets(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			t.Fatal(err)
		}
		for r, row := range sh.rows {
			for c, cell := range row {
				name, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(sh.name, name, cell); err != nil {
					t.Fatal(err)
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "multi.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.xlsx")
	if err := WriteSample(path); err != nil {
		t.Fatal(err)
	}

	recs, err := DecodeFile(path, "")
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}

	if recs.Sheet != SampleSheet {
		t.Errorf("expected sheet %q, got %q", SampleSheet, recs.Sheet)
	}
	wantCols := []string{"ID", "Name", "Age", "Email", "Department"}
	if !reflect.DeepEqual(recs.Columns, wantCols) {
		t.Errorf("expected columns %v, got %v", wantCols, recs.Columns)
	}
	if len(recs.Rows) != 5 {
		t.Fatalf("expected 5 records, got %d", len(recs.Rows))
	}

	first := recs.Rows[0]
	if n, ok := first["Age"].AsNumber(); !ok || n != 30 {
		t.Errorf("expected Age 30 as number, got %v (%s)", first["Age"], first["Age"].Kind())
	}
	if s, ok := first["Name"].AsString(); !ok || s != "John Doe" {
		t.Errorf("expected Name 'John Doe', got %v", first["Name"])
	}
	if n, ok := recs.Rows[4]["ID"].AsNumber(); !ok || n != 5 {
		t.Errorf("expected last ID 5, got %v", recs.Rows[4]["ID"])
	}
}

func TestDecodeTypes(t *testing.T) {
	path := writeRows(t, "Data", [][]any{
		{"Label", "Score", "Passed", "Code"},
		{"a", 1.5, true, "007"},
		{"b", -2, false, "x"},
	})

	recs, err := DecodeFile(path, "")
	if err != nil {
		t.Fatal(err)
	}

	row := recs.Rows[0]
	if n, ok := row["Score"].AsNumber(); !ok || n != 1.5 {
		t.Errorf("expected Score 1.5, got %v", row["Score"])
	}
	if b, ok := row["Passed"].AsBool(); !ok || !b {
		t.Errorf("expected Passed true, got %v (%s)", row["Passed"], row["Passed"].Kind())
	}
	if s, ok := row["Code"].AsString(); !ok || s != "007" {
		t.Errorf("expected string Code '007', got %v (%s)", row["Code"], row["Code"].Kind())
	}
	if b, ok := recs.Rows[1]["Passed"].AsBool(); !ok || b {
		t.Errorf("expected Passed false, got %v", recs.Rows[1]["Passed"])
	}
}

func TestDecodeSkipsBlankRowsAndEmptyCells(t *testing.T) {
	path := writeRows(t, "Data", [][]any{
		{"A", "B"},
		{"x", nil},
		{nil, nil},
		{nil, "y"},
	})

	recs, err := DecodeFile(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs.Rows) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs.Rows))
	}
	if _, ok := recs.Rows[0]["B"]; ok {
		t.Error("empty cell should be absent from the record")
	}
	want := record.Row{"B": record.String("y")}
	if !reflect.DeepEqual(recs.Rows[1], want) {
		t.Errorf("expected %v, got %v", want, recs.Rows[1])
	}
}

func TestDecodeHeaderNaming(t *testing.T) {
	path := writeRows(t, "Data", [][]any{
		{"Name", nil, "Name", "Name", nil},
		{"a", "b", "c", "d", "e", "f"},
	})

	recs, err := DecodeFile(path, "")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Name", "__EMPTY", "Name_1", "Name_2", "__EMPTY_1", "__EMPTY_2"}
	if !reflect.DeepEqual(recs.Columns, want) {
		t.Errorf("expected columns %v, got %v", want, recs.Columns)
	}
	if s, _ := recs.Rows[0]["__EMPTY_2"].AsString(); s != "f" {
		t.Errorf("expected overflow cell under __EMPTY_2, got %v", recs.Rows[0])
	}
}

func TestDecodeTableOffsetFromA1(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for cell, v := range map[string]any{"B3": "Name", "C3": "Age", "B4": "Ann", "C4": 30} {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "offset.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	recs, err := DecodeFile(path, "")
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"Name", "Age"}; !reflect.DeepEqual(recs.Columns, want) {
		t.Errorf("expected columns %v, got %v", want, recs.Columns)
	}
	want := []record.Row{{"Name": record.String("Ann"), "Age": record.Number(30)}}
	if !reflect.DeepEqual(recs.Rows, want) {
		t.Errorf("expected rows %v, got %v", want, recs.Rows)
	}
}

func TestUsedRange(t *testing.T) {
	top, left, ok := usedRange([][]string{nil, {}, {"", "", "x"}, {"", "y"}})
	if !ok || top != 2 || left != 1 {
		t.Errorf("expected (2, 1, true), got (%d, %d, %v)", top, left, ok)
	}
	if _, _, ok := usedRange([][]string{{}, {"", ""}}); ok {
		t.Error("expected no used range for a blank sheet")
	}
}

func TestDecodeNamedSheet(t *testing.T) {
	path := writeSheets(t,
		testSheet{"First", [][]any{{"A"}, {1}}},
		testSheet{"Second", [][]any{{"B"}, {2}, {3}}},
	)

	recs, err := DecodeFile(path, "Second")
	if err != nil {
		t.Fatal(err)
	}
	if recs.Sheet != "Second" || len(recs.Rows) != 2 {
		t.Errorf("expected 2 records from Second, got %d from %q", len(recs.Rows), recs.Sheet)
	}

	if _, err := DecodeFile(path, "Missing"); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	path := writeRows(t, "Data", [][]any{{"A", "B"}})

	recs, err := DecodeFile(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs.Rows) != 0 {
		t.Errorf("expected no records, got %d", len(recs.Rows))
	}
	if len(recs.Columns) != 2 {
		t.Errorf("expected 2 columns, got %v", recs.Columns)
	}
}

func TestDecodeBytesMatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.xlsx")
	if err := WriteSample(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	fromBytes, err := DecodeBytes(data, "")
	if err != nil {
		t.Fatal(err)
	}
	fromFile, err := DecodeFile(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromBytes, fromFile) {
		t.Error("DecodeBytes and DecodeFile disagree")
	}
}
