package identity

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryStorage is a session-scoped store: it lives as long as the process
// (or test) that owns it.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// FileStorage is a durable store keeping one small file per key under dir.
// It backs the visitor token so it survives restarts.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, key)
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

func (f *FileStorage) Set(key, value string) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path(key), []byte(value), 0o644)
}
