package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists items to a JSON file.
// Every write rewrites the whole file (tmp file + rename) with 0600 permissions.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	items map[string]string
}

type fileSnapshot struct {
	Items map[string]string `json:"items"`
}

// NewFileStore creates a Store backed by the file at path, loading any existing content.
// A missing file is not an error: it is created on the first Set.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:  path,
		items: map[string]string{},
	}
	if err := fs.load(); err != nil {
		return nil, fmt.Errorf("loading token file %s: %w", path, err)
	}
	return fs, nil
}

// Path returns the location of the backing file
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.items[key]
	return value, ok
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = value
	return f.save()
}

func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[key]; !ok {
		return nil
	}
	delete(f.items, key)
	return f.save()
}

func (f *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileSnapshot{Items: f.items}, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Items != nil {
		f.items = snap.Items
	}
	return nil
}
