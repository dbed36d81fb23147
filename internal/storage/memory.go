package storage

import "sync"

// Memory keeps items in a map. It is not persisted.
type Memory struct {
	mu    sync.Mutex
	items map[string]string
	quota int
}

// NewMemory returns an empty in-process backend. quota <= 0 means unlimited.
func NewMemory(quota int) *Memory {
	return &Memory{items: make(map[string]string), quota: quota}
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := usage(key, value)
	for k, v := range m.items {
		if k != key {
			total += usage(k, v)
		}
	}
	if err := checkQuota(m.quota, total); err != nil {
		return err
	}
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) Close() error { return nil }
