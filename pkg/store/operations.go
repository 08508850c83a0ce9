package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// validateKey rejects keys the store cannot address.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must be a non-empty string", ErrInvalidKey)
	}
	return nil
}

// marshalValue JSON-serializes a value for persistence.
func marshalValue(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return data, nil
}

// unmarshalValue parses stored bytes back into a Go value.
func unmarshalValue(key string, data []byte) (any, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w at key %q: %v", ErrValueParse, key, err)
	}
	return value, nil
}

// Set JSON-serializes value and stores it under key.
func (st *Store) Set(ctx context.Context, key string, value any) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := marshalValue(value)
	if err != nil {
		return err
	}

	return st.s.Set(ctx, key, data, 0)
}

// SetTTL stores a JSON-serialized value that expires after ttl.
func (st *Store) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := marshalValue(value)
	if err != nil {
		return err
	}

	return st.s.Set(ctx, key, data, ttl)
}

// Put stores each entry of record individually. The record must be a
// non-nil map with at least one key.
func (st *Store) Put(ctx context.Context, record map[string]any) error {
	if len(record) == 0 {
		return fmt.Errorf("%w: record must be a non-empty object", ErrInvalidValue)
	}

	pairs := make(map[string][]byte, len(record))
	for key, value := range record {
		if err := validateKey(key); err != nil {
			return err
		}

		data, err := marshalValue(value)
		if err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		pairs[key] = data
	}

	return st.s.MSet(ctx, pairs)
}

// Get returns the JSON-parsed value stored under key and whether it exists.
func (st *Store) Get(ctx context.Context, key string) (any, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	data, found, err := st.s.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	value, err := unmarshalValue(key, data)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// GetInto decodes the stored JSON value directly into dest.
// Returns ErrNotFound when the key is absent.
func (st *Store) GetInto(ctx context.Context, key string, dest any) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, found, err := st.s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w at key %q: %v", ErrValueParse, key, err)
	}
	return nil
}

// GetAll returns every stored key mapped to its JSON-parsed value.
func (st *Store) GetAll(ctx context.Context) (map[string]any, error) {
	keys, err := st.s.Keys(ctx, "*", 0)
	if err != nil {
		return nil, err
	}

	raw, err := st.s.MGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string]any, len(raw))
	for key, data := range raw {
		value, err := unmarshalValue(key, data)
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

// Delete removes the entry if present. Deleting an absent key is a no-op.
func (st *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := st.s.Delete(ctx, key)
	return err
}

// Exists checks whether the key is present.
func (st *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	return st.s.Exists(ctx, key)
}

// Keys returns up to limit keys matching the pattern. Supports prefix*
// patterns; a limit <= 0 means no limit.
func (st *Store) Keys(ctx context.Context, pattern string, limit int) ([]string, error) {
	return st.s.Keys(ctx, pattern, limit)
}

// Clear empties all storage.
func (st *Store) Clear(ctx context.Context) error {
	return st.s.Clear(ctx)
}
