package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newBadgerForTest(t *testing.T) *BadgerStorage {
	t.Helper()

	s, err := NewBadgerStorage(t.TempDir(), BadgerOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestBadgerStorageSetGetDelete(t *testing.T) {
	t.Parallel()

	s := newBadgerForTest(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "alpha", []byte(`{"n":1}`), 0))

	got, found, err := s.Get(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte(`{"n":1}`), got)

	n, err := s.Delete(ctx, "alpha", "missing")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, found, err = s.Get(ctx, "alpha")
	require.NoError(t, err)
	require.False(t, found)
}

func TestBadgerStorageKeysPattern(t *testing.T) {
	t.Parallel()

	s := newBadgerForTest(t)
	ctx := context.Background()

	require.NoError(t, s.MSet(ctx, map[string][]byte{
		"session:1": []byte("a"),
		"session:2": []byte("b"),
		"config":    []byte("c"),
	}))

	keys, err := s.Keys(ctx, "session:*", 0)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	keys, err = s.Keys(ctx, "session:*", 1)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	keys, err = s.Keys(ctx, "*", 0)
	require.NoError(t, err)
	require.Len(t, keys, 3)
}

func TestBadgerStorageTTL(t *testing.T) {
	t.Parallel()

	s := newBadgerForTest(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "forever", []byte("1"), 0))

	ttl, err := s.TTL(ctx, "forever")
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), ttl)

	require.NoError(t, s.Expire(ctx, "forever", time.Hour))

	ttl, err = s.TTL(ctx, "forever")
	require.NoError(t, err)
	require.Greater(t, ttl, 59*time.Minute)
}

func TestBadgerStorageClear(t *testing.T) {
	t.Parallel()

	s := newBadgerForTest(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, s.Clear(ctx))

	keys, err := s.Keys(ctx, "*", 0)
	require.NoError(t, err)
	require.Empty(t, keys)

	// The read cache must not resurrect dropped keys.
	_, found, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestBadgerStorageBackupRestore(t *testing.T) {
	t.Parallel()

	s := newBadgerForTest(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "kept", []byte("v"), 0))

	path := filepath.Join(t.TempDir(), "badger.bak")
	require.NoError(t, s.Backup(ctx, path))

	restored := newBadgerForTest(t)
	require.NoError(t, restored.Restore(ctx, path))

	got, found, err := restored.Get(ctx, "kept")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), got)
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	mem, err := Open(Options{Backend: BackendMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStorage{}, mem)
	require.NoError(t, mem.Close())

	bolt, err := Open(Options{Backend: BackendBolt, DataDir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &BoltStorage{}, bolt)
	require.NoError(t, bolt.Close())

	_, err = Open(Options{Backend: "etcd"})
	require.Error(t, err)
}
