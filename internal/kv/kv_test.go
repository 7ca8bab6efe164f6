package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "medications")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "medications", []byte(`[{"name":"Aspirin"}]`)))
	b, err := s.Get(ctx, "medications")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Aspirin"}]`, string(b))

	// whole-value replace
	require.NoError(t, s.Put(ctx, "medications", []byte(`[]`)))
	b, err = s.Get(ctx, "medications")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	require.NoError(t, s.Delete(ctx, "medications"))
	_, err = s.Get(ctx, "medications")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, "medications"))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, "reminders", []byte("{}")))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "reminders.json", entries[0].Name())
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../x", "a/b", ".."} {
		assert.Error(t, s.Put(context.Background(), key, []byte("x")), key)
	}
}

func TestNewFileStoreEmptyDir(t *testing.T) {
	_, err := NewFileStore(" ")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	v := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", v))
	v[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("MEDIMANAGE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MEDIMANAGE_TEST_REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url, "medimanage-test:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Driver: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, Options{Driver: "bolt"})
	assert.Error(t, err)
}
