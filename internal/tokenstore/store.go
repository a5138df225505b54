package tokenstore

import (
	"sync"
)

// AccessTokenKey is the well-known key the access token is stored under
const AccessTokenKey = "accessToken"

// Store is client-local key-value storage.
type Store interface {
	// Get returns the value stored under key, false if nothing is stored.
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is an in-memory Store safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]string{}
	}
	m.items[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
