package storage

import (
	"context"
	"time"
)

// Storage defines the interface for the byte-level storage backend.
// Values are opaque bytes; JSON serialization is layered on top by pkg/store.
type Storage interface {
	// Key-Value operations
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, pattern string, limit int) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Batch operations
	MSet(ctx context.Context, pairs map[string][]byte) error
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// Clear removes every key from the backend.
	Clear(ctx context.Context) error

	// Lifecycle
	Close() error
	Backup(ctx context.Context, path string) error
	Restore(ctx context.Context, path string) error
}
