package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get(AccessTokenKey)
	assert.False(t, ok, "empty store should not return a token")

	require.NoError(t, store.Set(AccessTokenKey, "token123"))
	value, ok := store.Get(AccessTokenKey)
	assert.True(t, ok)
	assert.Equal(t, "token123", value)

	require.NoError(t, store.Delete(AccessTokenKey))
	_, ok = store.Get(AccessTokenKey)
	assert.False(t, ok)

	// deleting a missing key is not an error
	assert.NoError(t, store.Delete("missing"))
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(AccessTokenKey, "token")
		}()
		go func() {
			defer wg.Done()
			store.Get(AccessTokenKey)
		}()
	}
	wg.Wait()

	value, ok := store.Get(AccessTokenKey)
	assert.True(t, ok)
	assert.Equal(t, "token", value)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok := store.Get(AccessTokenKey)
	assert.False(t, ok)

	require.NoError(t, store.Set(AccessTokenKey, "persisted-token"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok := reopened.Get(AccessTokenKey)
	assert.True(t, ok)
	assert.Equal(t, "persisted-token", value)

	require.NoError(t, reopened.Delete(AccessTokenKey))

	again, err := NewFileStore(path)
	require.NoError(t, err)
	_, ok = again.Get(AccessTokenKey)
	assert.False(t, ok)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	_, ok := store.Get(AccessTokenKey)
	assert.False(t, ok)
}

func TestStoreFromContext(t *testing.T) {
	_, ok := StoreFromContext(context.Background())
	assert.False(t, ok)

	store := NewMemoryStore()
	ctx := ContextWithStore(context.Background(), store)

	got, ok := StoreFromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, store, got)

	_, ok = StoreFromContext(ContextWithStore(context.Background(), nil))
	assert.False(t, ok, "nil store should be ignored")
}
