package history

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/record"
)

func sampleFiles() []history.FileRecord {
	return []history.FileRecord{{
		ID:      "a1",
		Name:    "users.xlsx",
		Sheet:   "Users",
		Columns: []string{"Name", "Age", "Active"},
		Rows: []record.Row{
			{"Name": record.String("John Doe"), "Age": record.Number(30), "Active": record.Bool(true)},
		},
		ImportedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleFiles(), "json"); err != nil {
		t.Fatal(err)
	}

	var got []history.FileRecord
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Rows[0].Get("Age").String() != "30" {
		t.Errorf("unexpected export %s", buf.String())
	}
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleFiles(), "yaml"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"name: users.xlsx", "Name: John Doe", "Age: 30", "Active: true", "importedAt:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in YAML:\n%s", want, out)
		}
	}

	var generic []map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &generic); err != nil {
		t.Fatalf("export should be valid YAML: %v", err)
	}
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, nil, "json"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty array, got %q", buf.String())
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if err := Export(&bytes.Buffer{}, nil, "csv"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
