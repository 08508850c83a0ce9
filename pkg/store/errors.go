package store

import "errors"

// Sentinel errors returned by the store. Callers match them with errors.Is.
var (
	// ErrInvalidKey is returned when a key is empty.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidValue is returned when a value fails validation, cannot be
	// serialized, or an existing stored value has the wrong JSON kind for a
	// merge operation.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNotFound is returned by GetInto when the key is absent.
	ErrNotFound = errors.New("key not found")

	// ErrValueParse is returned when stored bytes cannot be parsed as JSON.
	ErrValueParse = errors.New("stored value is not valid JSON")

	// ErrStorageUnavailable is returned by New when the availability probe
	// cannot complete a write/read/delete round-trip against the backend.
	ErrStorageUnavailable = errors.New("persistent storage unavailable")
)
