package store

import (
	"context"
	"fmt"
)

// MergeObject shallow-merges record on top of the JSON object stored under
// key and writes the result back. An absent key is treated as an empty
// object. Keys present in record overwrite the stored entries.
//
// Fails with ErrInvalidValue when record is empty or the existing stored
// value parses to something other than an object; the stored value is left
// untouched in that case.
func (st *Store) MergeObject(ctx context.Context, key string, record map[string]any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(record) == 0 {
		return fmt.Errorf("%w: record must be a non-empty object", ErrInvalidValue)
	}

	data, found, err := st.s.Get(ctx, key)
	if err != nil {
		return err
	}

	existing := make(map[string]any)
	if found {
		parsed, err := unmarshalValue(key, data)
		if err != nil {
			return err
		}
		obj, ok := parsed.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: existing value at key %q is not an object", ErrInvalidValue, key)
		}
		existing = obj
	}

	for k, v := range record {
		existing[k] = v
	}

	merged, err := marshalValue(existing)
	if err != nil {
		return err
	}
	return st.s.Set(ctx, key, merged, 0)
}

// MergeArray appends items to the JSON array stored under key and writes
// the result back. An absent key is treated as an empty array.
//
// Fails with ErrInvalidValue when items is nil or the existing stored value
// parses to something other than an array.
func (st *Store) MergeArray(ctx context.Context, key string, items []any) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if items == nil {
		return fmt.Errorf("%w: items must be a non-nil array", ErrInvalidValue)
	}

	data, found, err := st.s.Get(ctx, key)
	if err != nil {
		return err
	}

	var existing []any
	if found {
		parsed, err := unmarshalValue(key, data)
		if err != nil {
			return err
		}
		arr, ok := parsed.([]any)
		if !ok {
			return fmt.Errorf("%w: existing value at key %q is not an array", ErrInvalidValue, key)
		}
		existing = arr
	}

	existing = append(existing, items...)

	merged, err := marshalValue(existing)
	if err != nil {
		return err
	}
	return st.s.Set(ctx, key, merged, 0)
}
