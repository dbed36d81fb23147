package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps all items in one JSON object on disk. Every read goes to
// the file, so separate processes observe each other's writes.
type FileStore struct {
	mu    sync.Mutex
	path  string
	quota int
}

// OpenFile prepares a file backend at path, creating the parent directory.
// The file itself is created on first write.
func OpenFile(path string, quota int) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create storage directory: %w", err)
	}
	return &FileStore{path: path, quota: quota}, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (f *FileStore) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return err
	}

	total := usage(key, value)
	for k, v := range items {
		if k != key {
			total += usage(k, v)
		}
	}
	if err := checkQuota(f.quota, total); err != nil {
		return err
	}

	items[key] = value
	return f.write(items)
}

func (f *FileStore) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.write(items)
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) read() (map[string]string, error) {
	items := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return items, nil
		}
		return nil, fmt.Errorf("could not read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", f.path, err)
	}
	return items, nil
}

func (f *FileStore) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".sheetkit-*.tmp")
	if err != nil {
		return fmt.Errorf("could not write %s: %w", f.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", f.path, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("could not replace %s: %w", f.path, err)
	}
	return nil
}
