package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewDisabledWhenQuiet(t *testing.T) {
	if New("import", 3, true).Enabled {
		t.Error("expected bar to be disabled for quiet output")
	}
}

func TestNewWithEnvDisable(t *testing.T) {
	t.Setenv("SHEETKIT_NO_PROGRESS", "1")
	if New("import", 3, false).Enabled {
		t.Error("expected bar to be disabled with SHEETKIT_NO_PROGRESS=1")
	}
}

func TestStepCapsAtTotal(t *testing.T) {
	bar := &Bar{Total: 2, Width: 10}
	bar.Step("a.xlsx")
	bar.Step("b.xlsx")
	bar.Step("c.xlsx")
	if bar.Current != 2 {
		t.Errorf("expected current capped at 2, got %d", bar.Current)
	}
}

func TestPct(t *testing.T) {
	bar := &Bar{Total: 4, Width: 10}
	if bar.Pct() != 0 {
		t.Errorf("expected 0%%, got %.1f%%", bar.Pct())
	}
	bar.Step("a")
	if bar.Pct() != 25 {
		t.Errorf("expected 25%%, got %.1f%%", bar.Pct())
	}
	if (&Bar{}).Pct() != 0 {
		t.Error("expected 0% for zero total")
	}
}

func TestRenderEnabled(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 2, Width: 10, Label: "Importing", Enabled: true, Out: &buf}
	bar.Step("users.xlsx")

	out := buf.String()
	if !strings.Contains(out, "[=====     ] 1/2  users.xlsx") {
		t.Errorf("unexpected render %q", out)
	}

	bar.Finish("imported 2 files")
	if !strings.Contains(buf.String(), "✓ imported 2 files") {
		t.Errorf("missing summary in %q", buf.String())
	}
}

func TestDisabledBarDoesNotWrite(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{Total: 10, Width: 40, Enabled: false, Out: &buf}
	bar.Step("test")
	bar.Finish("done")

	if buf.Len() > 0 {
		t.Errorf("disabled bar should not write, wrote %q", buf.String())
	}
}
