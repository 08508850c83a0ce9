package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto"
)

// BadgerStorage implements Storage using BadgerDB with a small in-memory
// read-through cache in front of it.
type BadgerStorage struct {
	db    *badger.DB
	cache *ristretto.Cache
	stop  chan struct{}
}

// BadgerOptions tunes the badger backend.
type BadgerOptions struct {
	// GCInterval is how often the value-log garbage collector runs.
	// Zero means the default of 5 minutes.
	GCInterval time.Duration

	// CacheBytes is the read cache budget. Zero means 64 MiB.
	CacheBytes int64
}

// NewBadgerStorage opens (or creates) a BadgerDB-backed store at dataDir.
func NewBadgerStorage(dataDir string, opts BadgerOptions) (*BadgerStorage, error) {
	badgerOpts := badger.DefaultOptions(dataDir).
		WithLogger(nil).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	cacheBudget := opts.CacheBytes
	if cacheBudget <= 0 {
		cacheBudget = 64 << 20
	}

	// Initialize a small in-memory cache to accelerate hot key reads.
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     cacheBudget,
		BufferItems: 64,
	})
	if err != nil {
		// If the cache fails to init, continue without it.
		rc = nil
	}

	gcInterval := opts.GCInterval
	if gcInterval <= 0 {
		gcInterval = 5 * time.Minute
	}

	s := &BadgerStorage{db: db, cache: rc, stop: make(chan struct{})}

	go s.runGC(gcInterval)

	return s, nil
}

// runGC runs the value-log garbage collector periodically until Close.
func (s *BadgerStorage) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			_ = s.db.RunValueLogGC(0.7)
		}
	}
}

// Set stores a key-value pair with optional TTL.
func (s *BadgerStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return err
	}
	s.cacheSet(key, value, ttl)
	return nil
}

// Get retrieves a value by key.
func (s *BadgerStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	// Fast path: in-memory cache.
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if b, ok2 := v.([]byte); ok2 {
				return append([]byte(nil), b...), true, nil
			}
		}
	}

	var (
		value []byte
		found bool
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	if found {
		s.cacheSet(key, value, 0)
	}
	return value, found, nil
}

// Delete removes one or more keys and returns how many were present.
func (s *BadgerStorage) Delete(ctx context.Context, keys ...string) (int, error) {
	deleted := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if _, err := txn.Get([]byte(key)); err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
			deleted++
			if s.cache != nil {
				s.cache.Del(key)
			}
		}
		return nil
	})

	return deleted, err
}

// Exists checks if a key exists.
func (s *BadgerStorage) Exists(ctx context.Context, key string) (bool, error) {
	if s.cache != nil {
		if _, ok := s.cache.Get(key); ok {
			return true, nil
		}
	}

	var exists bool

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			exists = true
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return nil
	})

	return exists, err
}

// Keys returns keys matching a pattern. A limit <= 0 means no limit.
func (s *BadgerStorage) Keys(ctx context.Context, pattern string, limit int) ([]string, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := strings.TrimSuffix(pattern, "*")
		if pattern == "*" || pattern == "" {
			prefix = ""
		}

		for it.Seek([]byte(prefix)); it.Valid(); it.Next() {
			key := string(it.Item().Key())

			if !strings.HasPrefix(key, prefix) {
				break
			}

			if matchesPattern(key, pattern) {
				keys = append(keys, key)
				if limit > 0 && len(keys) >= limit {
					break
				}
			}
		}

		return nil
	})

	return keys, err
}

// matchesPattern checks if a key matches a pattern (simple * wildcard support).
func matchesPattern(key, pattern string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	if !strings.Contains(pattern, "*") {
		return key == pattern
	}

	parts := strings.Split(pattern, "*")
	if len(parts) == 2 {
		return strings.HasPrefix(key, parts[0]) && strings.HasSuffix(key, parts[1])
	}

	return strings.HasPrefix(key, parts[0])
}

// Expire sets TTL for an existing key.
func (s *BadgerStorage) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		var value []byte
		err = item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
		if err != nil {
			return err
		}

		entry := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		s.cacheSet(key, value, ttl)
		return nil
	})
}

// TTL returns the remaining time to live for a key.
// Negative means the key never expires; zero means expired.
func (s *BadgerStorage) TTL(ctx context.Context, key string) (time.Duration, error) {
	var ttl time.Duration

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		expiresAt := item.ExpiresAt()
		if expiresAt == 0 {
			ttl = -1
		} else {
			remaining := time.Until(time.Unix(int64(expiresAt), 0))
			if remaining < 0 {
				ttl = 0
			} else {
				ttl = remaining
			}
		}

		return nil
	})

	return ttl, err
}

// MSet sets multiple key-value pairs in one write batch.
func (s *BadgerStorage) MSet(ctx context.Context, pairs map[string][]byte) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for key, value := range pairs {
		if err := wb.Set([]byte(key), value); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	for key, value := range pairs {
		s.cacheSet(key, value, 0)
	}
	return nil
}

// MGet gets multiple values by keys; absent keys are omitted from the result.
func (s *BadgerStorage) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))

	var missing []string
	if s.cache != nil {
		for _, key := range keys {
			if v, ok := s.cache.Get(key); ok {
				if b, ok2 := v.([]byte); ok2 {
					result[key] = append([]byte(nil), b...)
					continue
				}
			}
			missing = append(missing, key)
		}
		if len(missing) == 0 {
			return result, nil
		}
		keys = missing
	}

	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}

			err = item.Value(func(val []byte) error {
				b := append([]byte(nil), val...)
				result[key] = b
				s.cacheSet(key, b, 0)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return result, err
}

// Clear drops every key in the database.
func (s *BadgerStorage) Clear(ctx context.Context) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to drop badger data: %w", err)
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return nil
}

// Close stops background tasks and closes the database.
func (s *BadgerStorage) Close() error {
	close(s.stop)
	return s.db.Close()
}

// Backup writes a full backup of the database to path.
func (s *BadgerStorage) Backup(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.db.Backup(f, 0)
	return err
}

// Restore loads a backup from path into the database.
func (s *BadgerStorage) Restore(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := s.db.Load(f, 0); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return nil
}

// cacheSet stores a defensive copy of value in the read cache.
func (s *BadgerStorage) cacheSet(key string, value []byte, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	v := append([]byte(nil), value...)
	if ttl > 0 {
		s.cache.SetWithTTL(key, v, int64(len(v)), ttl)
	} else {
		s.cache.Set(key, v, int64(len(v)))
	}
}
