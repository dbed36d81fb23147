// Package watch monitors directories for new or modified spreadsheets and
// hands each settled file to a handler, typically an import into history.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period a file must reach before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Config selects what to watch.
type Config struct {
	Directories []string
	// Pattern is a glob matched against the base name. Empty means "*.xlsx".
	Pattern   string
	Recursive bool
	Debounce  time.Duration
}

// Event records one handled file.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "imported", "error"
	FileID    string    `json:"fileId,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Handler processes a settled file and returns the id it was stored under.
type Handler func(ctx context.Context, path string) (string, error)

// Watcher monitors directories for spreadsheet changes. Handler calls are
// serialized so files land in history in the order they settle.
type Watcher struct {
	Config  Config
	Logger  *slog.Logger
	Handler Handler
	// OnEvent, when set, is called after each handled file.
	OnEvent func(Event)

	mu       sync.Mutex
	runMu    sync.Mutex
	inflight sync.WaitGroup
	stopped  bool
	events   []Event
	fsw      *fsnotify.Watcher
	debounce map[string]*time.Timer
	started  time.Time
}

// Status represents the current watcher status.
type Status struct {
	Directories []string  `json:"directories"`
	Pattern     string    `json:"pattern"`
	EventCount  int       `json:"eventCount"`
	StartedAt   time.Time `json:"startedAt"`
}

// New creates a Watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "*.xlsx"
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("invalid pattern %q: %w", cfg.Pattern, err)
	}

	return &Watcher{
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		fsw:      fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start watches the configured directories until ctx is cancelled. It
// returns only after a Handler call in progress has finished.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			err = w.addRecursive(absDir)
		} else {
			err = w.fsw.Add(absDir)
		}
		if err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.mu.Lock()
	w.started = time.Now()
	w.mu.Unlock()

	w.Logger.Info("watching", "directories", len(w.Config.Directories), "pattern", w.Config.Pattern)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.Logger.Debug("stopping watcher")
			return w.fsw.Close()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if w.Config.Recursive && event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.Logger.Warn("could not watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if !w.Matches(path) {
		return
	}

	w.mu.Lock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	op := event.Op.String()
	var timer *time.Timer
	timer = time.AfterFunc(w.Config.Debounce, func() {
		w.mu.Lock()
		// A timer that already fired can lose a race with Stop.
		if w.stopped || w.debounce[path] != timer {
			w.mu.Unlock()
			return
		}
		delete(w.debounce, path)
		w.inflight.Add(1)
		w.mu.Unlock()

		defer w.inflight.Done()
		w.process(ctx, path, op)
	})
	w.debounce[path] = timer
	w.mu.Unlock()
}

// Matches reports whether path is a spreadsheet the watcher handles. Office
// lock files ("~$name.xlsx") and hidden files are ignored.
func (w *Watcher) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	matched, _ := filepath.Match(strings.ToLower(w.Config.Pattern), strings.ToLower(base))
	return matched
}

func (w *Watcher) process(ctx context.Context, path, operation string) {
	if ctx.Err() != nil {
		return
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()

	evt := Event{Time: time.Now(), Path: path, Operation: operation}
	if w.Handler == nil {
		evt.Status = "skipped"
	} else if id, err := w.Handler(ctx, path); err != nil {
		evt.Status = "error"
		evt.Error = err.Error()
		w.Logger.Error("could not process file", "path", path, "error", err)
	} else {
		evt.Status = "imported"
		evt.FileID = id
		w.Logger.Info("processed file", "path", path, "id", id)
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()

	if w.OnEvent != nil {
		w.OnEvent(evt)
	}
}

// stopTimers cancels pending files and waits for a running Handler call to
// return. No Handler call starts after it.
func (w *Watcher) stopTimers() {
	w.mu.Lock()
	w.stopped = true
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
	w.mu.Unlock()

	w.inflight.Wait()
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Directories: w.Config.Directories,
		Pattern:     w.Config.Pattern,
		EventCount:  len(w.events),
		StartedAt:   w.started,
	}
}

// GetEvents returns all recorded events.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

// Close releases the underlying watcher when Start was never called.
func (w *Watcher) Close() error {
	w.stopTimers()
	return w.fsw.Close()
}
