package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/storage"
)

// run executes the root command in-process with an isolated home directory
// and history file, returning what cobra itself printed.
func run(t *testing.T, storePath string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if storePath != "" {
		args = append(args, "--store", "file", "--store-path", storePath)
	}
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return out.String(), err
}

func isolate(t *testing.T) (dir, storePath string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SHEETKIT_NO_PROGRESS", "1")
	return dir, filepath.Join(dir, "history.json")
}

func loadHistory(t *testing.T, path string) *history.Store {
	t.Helper()
	backing, err := storage.OpenFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	s := history.New(backing)
	s.LoadHistory()
	return s
}

// TestAllCommandsExist validates that every command appears in --help.
func TestAllCommandsExist(t *testing.T) {
	isolate(t)
	commands := []string{
		"import", "history", "view", "sample", "shell", "browse", "serve",
		"watch", "config", "doctor", "completion", "version",
	}

	out, err := run(t, "", "--help")
	if err != nil {
		t.Fatalf("sheetkit --help failed: %v", err)
	}
	for _, cmd := range commands {
		if !strings.Contains(out, cmd) {
			t.Errorf("command %q not found in sheetkit --help output", cmd)
		}
	}
}

// TestAllCommandsHaveHelp validates every command accepts --help.
func TestAllCommandsHaveHelp(t *testing.T) {
	isolate(t)
	commandPaths := [][]string{
		{"import"},
		{"history", "list"}, {"history", "remove"}, {"history", "clear"}, {"history", "export"},
		{"view", "data"}, {"view", "chart"},
		{"sample"}, {"shell"}, {"browse"}, {"serve"}, {"watch"},
		{"config", "init"}, {"config", "show"}, {"config", "validate"},
		{"completion", "bash"}, {"completion", "zsh"},
		{"doctor"}, {"version"},
	}

	for _, path := range commandPaths {
		args := append(path, "--help")
		t.Run(strings.Join(path, "_"), func(t *testing.T) {
			out, err := run(t, "", args...)
			if err != nil {
				t.Errorf("sheetkit %s --help failed: %v", strings.Join(path, " "), err)
			}
			if !strings.Contains(out, "Usage:") {
				t.Errorf("expected usage in help output, got: %s", out)
			}
		})
	}
}

// TestSampleImportViewRemove walks the main flow against a real history file.
func TestSampleImportViewRemove(t *testing.T) {
	dir, storePath := isolate(t)
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	for _, p := range []string{a, b} {
		if _, err := run(t, "", "sample", p); err != nil {
			t.Fatalf("sample %s: %v", p, err)
		}
	}
	if _, err := run(t, storePath, "import", a, b); err != nil {
		t.Fatalf("import: %v", err)
	}

	s := loadHistory(t, storePath)
	files := s.Files()
	if len(files) != 2 || files[0].Name != "b.xlsx" || files[1].Name != "a.xlsx" {
		t.Fatalf("expected [b.xlsx a.xlsx], got %+v", files)
	}
	if sel, _ := s.Selected(); sel.Name != "b.xlsx" {
		t.Errorf("expected b.xlsx selected after load, got %q", sel.Name)
	}

	if _, err := run(t, storePath, "view", "data", "a.xlsx"); err != nil {
		t.Errorf("view data: %v", err)
	}
	if _, err := run(t, storePath, "view", "chart", "--value", "Age"); err != nil {
		t.Errorf("view chart: %v", err)
	}
	if _, err := run(t, storePath, "view", "chart", "--value", "Salary"); err == nil {
		t.Error("expected error for unknown chart column")
	}

	if _, err := run(t, storePath, "history", "remove", files[0].ID); err != nil {
		t.Fatalf("history remove: %v", err)
	}
	s = loadHistory(t, storePath)
	if s.Len() != 1 || s.Files()[0].Name != "a.xlsx" {
		t.Errorf("expected only a.xlsx left, got %+v", s.Files())
	}
}

// TestImportCheckDoesNotMutate validates --check leaves the history alone.
func TestImportCheckDoesNotMutate(t *testing.T) {
	dir, storePath := isolate(t)
	a := filepath.Join(dir, "a.xlsx")
	if _, err := run(t, "", "sample", a); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, storePath, "import", "--check", a); err != nil {
		t.Fatalf("import --check: %v", err)
	}
	if n := loadHistory(t, storePath).Len(); n != 0 {
		t.Errorf("expected empty history after --check, got %d files", n)
	}
}

// TestImportRejectsNonXlsx validates the extension guard.
func TestImportRejectsNonXlsx(t *testing.T) {
	_, storePath := isolate(t)
	_, err := run(t, storePath, "import", "notes.txt")
	if err == nil || !strings.Contains(err.Error(), ".xlsx") {
		t.Errorf("expected .xlsx error, got %v", err)
	}
}

// TestViewWithoutSelection validates the empty-history message.
func TestViewWithoutSelection(t *testing.T) {
	_, storePath := isolate(t)
	_, err := run(t, storePath, "view", "data")
	if err == nil || !strings.Contains(err.Error(), "no file selected") {
		t.Errorf("expected no-selection error, got %v", err)
	}
}

// TestUnknownStoreBackend validates the backend error surfaces.
func TestUnknownStoreBackend(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "history", "list", "--store", "redis")
	if err == nil || !strings.Contains(err.Error(), "unknown storage backend") {
		t.Errorf("expected unknown backend error, got %v", err)
	}
}
