package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// MemoryStorage provides an in-memory backend with TTL support.
// It is intended for tests and ephemeral sessions.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]memEntry
	stop chan struct{}
}

type memEntry struct {
	val       []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStorage creates an empty in-memory store and starts its TTL janitor.
func NewMemoryStorage() *MemoryStorage {
	m := &MemoryStorage{data: make(map[string]memEntry), stop: make(chan struct{})}
	go m.janitor()
	return m
}

// Close stops the janitor.
func (m *MemoryStorage) Close() error {
	close(m.stop)
	return nil
}

func (m *MemoryStorage) janitor() {
	t := time.NewTicker(1 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			now := time.Now()
			m.mu.Lock()
			for k, e := range m.data {
				if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.data[key] = memEntry{val: append([]byte(nil), value...), expiresAt: exp}
	return nil
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, keys ...string) (int, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	cnt := 0
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			cnt++
		}
	}
	return cnt, nil
}

func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, _ := m.Get(ctx, key)
	return ok, nil
}

func (m *MemoryStorage) Keys(ctx context.Context, pattern string, limit int) ([]string, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	res := make([]string, 0, len(m.data))
	for k, e := range m.data {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			continue
		}
		if matchesPattern(k, pattern) {
			res = append(res, k)
			if limit > 0 && len(res) >= limit {
				break
			}
		}
	}
	return res, nil
}

func (m *MemoryStorage) Expire(ctx context.Context, key string, ttl time.Duration) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if ttl <= 0 {
		e.expiresAt = time.Time{}
	} else {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStorage) TTL(ctx context.Context, key string) (time.Duration, error) {
	_ = ctx
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	if e.expiresAt.IsZero() {
		return -1, nil
	}
	if time.Now().After(e.expiresAt) {
		return 0, nil
	}
	return time.Until(e.expiresAt), nil
}

func (m *MemoryStorage) MSet(ctx context.Context, pairs map[string][]byte) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range pairs {
		m.data[k] = memEntry{val: append([]byte(nil), v...)}
	}
	return nil
}

func (m *MemoryStorage) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if e, ok := m.data[k]; ok {
			if e.expiresAt.IsZero() || time.Now().Before(e.expiresAt) {
				res[k] = append([]byte(nil), e.val...)
			}
		}
	}
	return res, nil
}

func (m *MemoryStorage) Clear(ctx context.Context) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]memEntry)
	return nil
}

// Backup writes all live entries to path as a JSON document.
func (m *MemoryStorage) Backup(ctx context.Context, path string) error {
	pairs, err := m.MGet(ctx, m.allKeys())
	if err != nil {
		return err
	}

	doc := make(map[string]string, len(pairs))
	for k, v := range pairs {
		doc[k] = string(v)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Restore loads entries from a JSON backup written by Backup.
func (m *MemoryStorage) Restore(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	pairs := make(map[string][]byte, len(doc))
	for k, v := range doc {
		pairs[k] = []byte(v)
	}
	return m.MSet(ctx, pairs)
}

func (m *MemoryStorage) allKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

var _ Storage = (*MemoryStorage)(nil)
