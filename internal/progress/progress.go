// Package progress draws the import progress bar.
// All output goes to stderr to avoid polluting stdout/pipes.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Bar renders an ASCII progress bar, one step per imported file.
type Bar struct {
	Total   int
	Current int
	Label   string
	Width   int
	Enabled bool
	Out     io.Writer

	mu sync.Mutex
}

// New creates a progress bar writing to stderr. It is disabled when quiet
// is set (for --json), when stderr is not a TTY, or SHEETKIT_NO_PROGRESS=1.
func New(label string, total int, quiet bool) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: !quiet && shouldEnable(),
		Out:     os.Stderr,
	}
}

// Step advances the bar to the next file; it matches importer.Importer.OnFile.
func (b *Bar) Step(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Current < b.Total {
		b.Current++
	}
	b.render(name)
}

// Finish clears the bar and prints a summary line.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	fmt.Fprintf(b.out(), "\r\033[K✓ %s\n", summary)
}

// Pct returns the current percentage (0-100) of the bar.
func (b *Bar) Pct() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Total == 0 {
		return 0
	}
	return float64(b.Current) / float64(b.Total) * 100
}

func (b *Bar) render(status string) {
	if !b.Enabled {
		return
	}

	filled := 0
	if b.Total > 0 {
		filled = b.Current * b.Width / b.Total
	}

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", b.Width-filled)
	fmt.Fprintf(b.out(), "\r\033[K%s [%s] %d/%d  %s", b.Label, bar, b.Current, b.Total, status)
}

func (b *Bar) out() io.Writer {
	if b.Out == nil {
		return os.Stderr
	}
	return b.Out
}

func shouldEnable() bool {
	if os.Getenv("SHEETKIT_NO_PROGRESS") == "1" {
		return false
	}
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
