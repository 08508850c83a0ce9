package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"localstore/storage"
)

// Keys reserved by the store itself. They never appear in GetAll results
// because the probe removes its sentinel and Ping never writes.
const (
	probeKey = "__localstore_probe__"
	pingKey  = "__ping__"
)

// Store provides a JSON-serialized key-value API over the storage backend.
// Values are marshaled on write and unmarshaled on read; all persistence is
// delegated to the underlying storage.Storage implementation.
type Store struct {
	s   storage.Storage
	log hclog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger used for probe diagnostics.
func WithLogger(l hclog.Logger) Option {
	return func(st *Store) {
		if l != nil {
			st.log = l
		}
	}
}

// New wraps the given storage backend and verifies it is usable by running
// an availability probe: write a sentinel key, read it back, compare, and
// delete it. A failed probe returns an error wrapping ErrStorageUnavailable
// so the caller can surface a user-facing warning.
func New(s storage.Storage, opts ...Option) (*Store, error) {
	st := &Store{s: s, log: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(st)
	}

	if err := st.probe(context.Background()); err != nil {
		st.log.Warn("storage availability probe failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return st, nil
}

// Underlying exposes the raw storage for advanced scenarios.
func (st *Store) Underlying() storage.Storage { return st.s }

// Close closes the underlying storage backend.
func (st *Store) Close() error { return st.s.Close() }

// Ping provides a cheap health check path. Exists on a non-existing key
// is close to free on every backend.
func (st *Store) Ping(ctx context.Context) error {
	if _, err := st.s.Exists(ctx, pingKey); err != nil {
		return err
	}
	return nil
}

// probe performs the write/read/delete round-trip against the backend.
// The sentinel is removed on every path, including failures.
func (st *Store) probe(ctx context.Context) error {
	token := []byte(uuid.NewString())

	if err := st.s.Set(ctx, probeKey, token, 0); err != nil {
		return fmt.Errorf("probe write failed: %w", err)
	}

	// Best effort: never leave the sentinel behind.
	defer func() {
		_, _ = st.s.Delete(ctx, probeKey)
	}()

	got, found, err := st.s.Get(ctx, probeKey)
	if err != nil {
		return fmt.Errorf("probe read failed: %w", err)
	}
	if !found || !bytes.Equal(got, token) {
		return fmt.Errorf("probe read returned unexpected value")
	}

	if _, err := st.s.Delete(ctx, probeKey); err != nil {
		return fmt.Errorf("probe delete failed: %w", err)
	}

	return nil
}
