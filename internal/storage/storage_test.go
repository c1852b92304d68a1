package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "db", "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "ntricacid_history")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "ntricacid_history", []byte(`[{"id":"welcome"}]`)))
			got, err := s.Get(ctx, "ntricacid_history")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"welcome"}]`, string(got))

			require.NoError(t, s.Set(ctx, "ntricacid_history", []byte(`[]`)))
			got, err = s.Get(ctx, "ntricacid_history")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got), "Set replaces the value")

			require.NoError(t, s.Delete(ctx, "ntricacid_history"))
			_, err = s.Get(ctx, "ntricacid_history")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Delete(ctx, "ntricacid_history"), "deleting an absent key is fine")
		})
	}
}

func TestStoreEmptyValue(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "k", nil))
			got, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a/b", "..", "sp ace"} {
				assert.Error(t, s.Set(ctx, key, []byte("x")), "key %q", key)
				_, err := s.Get(ctx, key)
				assert.Error(t, err, "key %q", key)
			}
		})
	}
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "ntricacid_settings", []byte(`{"aiName":"Nova"}`)))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "ntricacid_settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"aiName":"Nova"}`, string(got))
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "ntricacid_settings", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
	assert.Equal(t, "ntricacid_settings.json", entries[0].Name())
}

func TestFileStoreWatch(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	s.debounce = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	require.NoError(t, s.Watch(ctx, func(key string) { changed <- key }))

	require.NoError(t, s.Set(ctx, "ntricacid_history", []byte(`[]`)))
	select {
	case key := <-changed:
		t.Fatalf("own write reported as change: %s", key)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ntricacid_settings.json"), []byte(`{"userName":"Ada"}`), 0644))
	select {
	case key := <-changed:
		assert.Equal(t, "ntricacid_settings", key)
	case <-time.After(3 * time.Second):
		t.Fatal("external write was not reported")
	}
}

func TestKeyFromPath(t *testing.T) {
	key, ok := keyFromPath("/tmp/x/ntricacid_history.json")
	assert.True(t, ok)
	assert.Equal(t, "ntricacid_history", key)

	_, ok = keyFromPath("/tmp/x/.ntricacid_history.123.tmp")
	assert.False(t, ok)
	_, ok = keyFromPath("/tmp/x/notes.txt")
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendFile, filepath.Join(dir, "state"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(BackendSQLite, filepath.Join(dir, "kv.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	_, err = Open("redis", "")
	assert.Error(t, err)
}
