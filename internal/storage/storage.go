// Package storage provides the string key-value backings the history
// persists to: an in-process map, a JSON file and a SQLite table.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultQuota mirrors the usual per-origin browser storage allowance.
const DefaultQuota = 5 << 20

var (
	// ErrQuotaExceeded is returned when a write would grow the backing past its quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Backend is a synchronous, capacity-limited string key-value store.
type Backend interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string
	Quota   int
}

// Open creates the named backend. An empty Path falls back to DefaultPath.
func Open(opts Options) (Backend, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendFile
	}

	path := opts.Path
	if path == "" && backend != BackendMemory {
		path = DefaultPath(backend)
	}

	switch backend {
	case BackendFile:
		return OpenFile(path, opts.Quota)
	case BackendSQLite:
		return OpenSQLite(path, opts.Quota)
	case BackendMemory:
		return NewMemory(opts.Quota), nil
	default:
		return nil, fmt.Errorf("%w %q — use file, sqlite or memory", ErrUnknownBackend, opts.Backend)
	}
}

// DefaultPath returns ~/.sheetkit/history.json or ~/.sheetkit/history.db.
func DefaultPath(backend string) string {
	name := "history.json"
	if backend == BackendSQLite {
		name = "history.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sheetkit", name)
	}
	return filepath.Join(home, ".sheetkit", name)
}

// usage is the quota cost of one entry.
func usage(key, value string) int {
	return len(key) + len(value)
}

func checkQuota(quota, current int) error {
	if quota > 0 && current > quota {
		return fmt.Errorf("%w (%d of %d bytes)", ErrQuotaExceeded, current, quota)
	}
	return nil
}
