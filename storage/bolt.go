package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// entriesBucket is the single bucket holding all key-value entries.
var entriesBucket = []byte("entries")

// BoltStorage implements Storage using bbolt. Entries are stored in a single
// bucket with an 8-byte expiry header (unix nanoseconds, 0 = no expiry)
// prepended to the value; expired entries are treated as absent on read.
type BoltStorage struct {
	db *bolt.DB
}

// NewBoltStorage opens (or creates) a bbolt-backed store at path.
func NewBoltStorage(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStorage{db: db}, nil
}

// encodeEntry prepends the expiry header to the value.
func encodeEntry(value []byte, ttl time.Duration) []byte {
	buf := make([]byte, 8+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(time.Now().Add(ttl).UnixNano()))
	}
	copy(buf[8:], value)
	return buf
}

// decodeEntry splits a stored entry into its value and expiry.
// ok is false when the entry is malformed or expired.
func decodeEntry(raw []byte) (value []byte, expiresAt time.Time, ok bool) {
	if len(raw) < 8 {
		return nil, time.Time{}, false
	}
	nanos := binary.BigEndian.Uint64(raw)
	if nanos != 0 {
		expiresAt = time.Unix(0, int64(nanos))
		if time.Now().After(expiresAt) {
			return nil, expiresAt, false
		}
	}
	return raw[8:], expiresAt, true
}

func (s *BoltStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte(key), encodeEntry(value, ttl))
	})
}

func (s *BoltStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(entriesBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		v, _, ok := decodeEntry(raw)
		if !ok {
			return nil
		}
		value = append([]byte(nil), v...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (s *BoltStorage) Delete(ctx context.Context, keys ...string) (int, error) {
	deleted := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, key := range keys {
			if b.Get([]byte(key)) == nil {
				continue
			}
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})

	return deleted, err
}

func (s *BoltStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := s.Get(ctx, key)
	return found, err
}

func (s *BoltStorage) Keys(ctx context.Context, pattern string, limit int) ([]string, error) {
	var keys []string

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(k, v []byte) error {
			if _, _, ok := decodeEntry(v); !ok {
				return nil
			}
			if matchesPattern(string(k), pattern) {
				keys = append(keys, string(k))
				if limit > 0 && len(keys) >= limit {
					return errStopIteration
				}
			}
			return nil
		})
	})
	if err == errStopIteration {
		err = nil
	}

	return keys, err
}

// errStopIteration terminates a ForEach walk early once limit is reached.
var errStopIteration = fmt.Errorf("stop iteration")

func (s *BoltStorage) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		value, _, ok := decodeEntry(raw)
		if !ok {
			return nil
		}
		return b.Put([]byte(key), encodeEntry(value, ttl))
	})
}

func (s *BoltStorage) TTL(ctx context.Context, key string) (time.Duration, error) {
	var ttl time.Duration

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(entriesBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		_, expiresAt, ok := decodeEntry(raw)
		if !ok {
			return nil
		}
		if expiresAt.IsZero() {
			ttl = -1
			return nil
		}
		ttl = time.Until(expiresAt)
		return nil
	})

	return ttl, err
}

func (s *BoltStorage) MSet(ctx context.Context, pairs map[string][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for key, value := range pairs {
			if err := b.Put([]byte(key), encodeEntry(value, 0)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStorage) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, key := range keys {
			raw := b.Get([]byte(key))
			if raw == nil {
				continue
			}
			if v, _, ok := decodeEntry(raw); ok {
				result[key] = append([]byte(nil), v...)
			}
		}
		return nil
	})

	return result, err
}

func (s *BoltStorage) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(entriesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(entriesBucket)
		return err
	})
}

func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// Backup writes a consistent copy of the database file to path.
func (s *BoltStorage) Backup(ctx context.Context, path string) error {
	return s.db.View(func(tx *bolt.Tx) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = tx.WriteTo(f)
		return err
	})
}

// Restore replaces the current contents with the entries from a backup file.
func (s *BoltStorage) Restore(ctx context.Context, path string) error {
	src, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true, Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer src.Close()

	return s.db.Update(func(tx *bolt.Tx) error {
		dst := tx.Bucket(entriesBucket)
		return src.View(func(stx *bolt.Tx) error {
			b := stx.Bucket(entriesBucket)
			if b == nil {
				return fmt.Errorf("backup has no entries bucket")
			}
			return b.ForEach(func(k, v []byte) error {
				return dst.Put(append([]byte(nil), k...), append([]byte(nil), v...))
			})
		})
	})
}

var _ Storage = (*BoltStorage)(nil)
