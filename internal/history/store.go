// Package history keeps the ordered list of recently imported spreadsheets
// and the currently selected one, persisted through a key-value backing.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/klytics/sheetkit/internal/record"
)

// DefaultKey is the backing key the serialized history lives under.
const DefaultKey = "excelReaderHistory"

var (
	// ErrUnknownID is returned by SelectByID when no file has the given id.
	ErrUnknownID = errors.New("unknown file id")
	// ErrAmbiguousID is returned by Resolve when a prefix matches several files.
	ErrAmbiguousID = errors.New("ambiguous file id")
)

// FileRecord is one imported spreadsheet.
type FileRecord struct {
	ID         string       `json:"id" yaml:"id"`
	Name       string       `json:"name" yaml:"name"`
	Sheet      string       `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Columns    []string     `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows       []record.Row `json:"rows" yaml:"rows"`
	Source     string       `json:"source,omitempty" yaml:"source,omitempty"`
	ImportedAt time.Time    `json:"importedAt" yaml:"importedAt"`
}

// ByReference reports whether the rows were not stored and must be
// re-decoded from Source.
func (f FileRecord) ByReference() bool {
	return f.Rows == nil && f.Source != ""
}

// Backing is the synchronous string key-value storage the history persists to.
type Backing interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Store owns the history state. All reads and writes of the persisted
// history go through it. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	backing  Backing
	key      string
	logger   *slog.Logger
	files    []FileRecord
	selected *FileRecord
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the backing key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for fail-soft diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty store over the given backing. Call LoadHistory to
// hydrate it.
func New(backing Backing, opts ...Option) *Store {
	s := &Store{
		backing: backing,
		key:     DefaultKey,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the backing key in use.
func (s *Store) Key() string { return s.key }

// LoadHistory replaces the in-memory files with the persisted ones and
// selects the first. A missing, unreadable or corrupt value leaves the state
// untouched; no error is reported. It never writes to the backing.
func (s *Store) LoadHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.backing.GetItem(s.key)
	if err != nil {
		s.logger.Debug("history read failed, keeping empty state", "key", s.key, "error", err)
		return
	}
	if !ok || raw == "" {
		return
	}

	var files []FileRecord
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		s.logger.Debug("history value is corrupt, keeping empty state", "key", s.key, "error", err)
		return
	}

	s.files = files
	s.selected = nil
	if len(files) > 0 {
		first := files[0]
		s.selected = &first
	}
	s.logger.Debug("history loaded", "key", s.key, "files", len(files))
}

// AddFile prepends file, selects it and persists. Ids are not deduplicated.
func (s *Store) AddFile(file FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = append([]FileRecord{file}, s.files...)
	s.selected = &file
	return s.save()
}

// SelectFile selects file without checking membership and without persisting.
func (s *Store) SelectFile(file FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &file
}

// SelectByID selects the known file with the given id.
func (s *Store) SelectByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	f := s.files[i]
	s.selected = &f
	return nil
}

// RemoveFile drops the first file with the given id. Removing the selected
// file moves the selection to the new first file, or clears it. The history
// is persisted even when nothing matched.
func (s *Store) RemoveFile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.files = append(s.files[:i:i], s.files[i+1:]...)
	}

	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
		if len(s.files) > 0 {
			first := s.files[0]
			s.selected = &first
		}
	}

	return s.save()
}

// SaveHistory writes the file list (never the selection) to the backing.
func (s *Store) SaveHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// Clear removes the persisted history and resets the state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backing.RemoveItem(s.key); err != nil {
		return fmt.Errorf("could not clear history: %w", err)
	}
	s.files = nil
	s.selected = nil
	return nil
}

// Files returns a copy of the files, most recent first.
func (s *Store) Files() []FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FileRecord, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of known files.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Selected returns the selected file, if any.
func (s *Store) Selected() (FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return FileRecord{}, false
	}
	return *s.selected, true
}

// Lookup returns the known file with the given id.
func (s *Store) Lookup(id string) (FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return FileRecord{}, false
	}
	return s.files[i], true
}

// Resolve finds a file by exact id, then by unique id prefix, then by name.
// A name shared by several files resolves to the most recent one.
func (s *Store) Resolve(ref string) (FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref == "" {
		return FileRecord{}, fmt.Errorf("%w: empty", ErrUnknownID)
	}
	if i := s.indexOf(ref); i >= 0 {
		return s.files[i], nil
	}

	match := -1
	for i := range s.files {
		if strings.HasPrefix(s.files[i].ID, ref) {
			if match >= 0 {
				return FileRecord{}, fmt.Errorf("%w: %s", ErrAmbiguousID, ref)
			}
			match = i
		}
	}
	if match >= 0 {
		return s.files[match], nil
	}

	for i := range s.files {
		if s.files[i].Name == ref {
			return s.files[i], nil
		}
	}
	return FileRecord{}, fmt.Errorf("%w: %s", ErrUnknownID, ref)
}

func (s *Store) indexOf(id string) int {
	for i := range s.files {
		if s.files[i].ID == id {
			return i
		}
	}
	return -1
}

// save must be called with mu held.
func (s *Store) save() error {
	files := s.files
	if files == nil {
		files = []FileRecord{}
	}

	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("could not encode history: %w", err)
	}
	if err := s.backing.SetItem(s.key, string(data)); err != nil {
		return fmt.Errorf("could not save history: %w", err)
	}
	s.logger.Debug("history saved", "key", s.key, "files", len(s.files), "bytes", len(data))
	return nil
}
