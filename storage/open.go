package storage

import (
	"fmt"
	"path/filepath"
	"time"
)

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Options selects and tunes a storage backend.
type Options struct {
	// Backend is one of "badger", "bolt" or "memory". Empty means "badger".
	Backend string

	// DataDir is the directory holding the on-disk state. Ignored by "memory".
	DataDir string

	// GCInterval is how often badger's value-log GC runs.
	GCInterval time.Duration

	// CacheMB is the badger read cache budget in mebibytes.
	CacheMB int
}

// Open creates the storage backend named by opts.Backend.
func Open(opts Options) (Storage, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendBadger
	}

	switch backend {
	case BackendBadger:
		return NewBadgerStorage(opts.DataDir, BadgerOptions{
			GCInterval: opts.GCInterval,
			CacheBytes: int64(opts.CacheMB) << 20,
		})
	case BackendBolt:
		return NewBoltStorage(filepath.Join(opts.DataDir, "localstore.db"))
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
