package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeObjectOntoAbsentKey(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, st.MergeObject(ctx, "settings", map[string]any{"theme": "dark"}))

	value, found, err := st.Get(ctx, "settings")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]any{"theme": "dark"}, value)
}

func TestMergeObjectOverwritesKeywise(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "settings", map[string]any{"theme": "light", "lang": "en"}))
	require.NoError(t, st.MergeObject(ctx, "settings", map[string]any{"theme": "dark"}))

	value, _, err := st.Get(ctx, "settings")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"theme": "dark", "lang": "en"}, value)
}

func TestMergeObjectRejectsWrongKind(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "scalar", 42))

	err := st.MergeObject(ctx, "scalar", map[string]any{"a": 1})
	require.ErrorIs(t, err, ErrInvalidValue)

	// The stored value must be untouched after a failed merge.
	value, _, err := st.Get(ctx, "scalar")
	require.NoError(t, err)
	require.Equal(t, float64(42), value)
}

func TestMergeObjectRejectsEmptyRecord(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.ErrorIs(t, st.MergeObject(ctx, "settings", nil), ErrInvalidValue)
	require.ErrorIs(t, st.MergeObject(ctx, "settings", map[string]any{}), ErrInvalidValue)
}

func TestMergeArrayOntoAbsentKey(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, st.MergeArray(ctx, "events", []any{"boot"}))

	value, found, err := st.Get(ctx, "events")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []any{"boot"}, value)
}

func TestMergeArrayConcatenates(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "events", []any{"boot"}))
	require.NoError(t, st.MergeArray(ctx, "events", []any{"login", "sync"}))

	value, _, err := st.Get(ctx, "events")
	require.NoError(t, err)
	require.Equal(t, []any{"boot", "login", "sync"}, value)
}

func TestMergeArrayRejectsWrongKind(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "settings", map[string]any{"theme": "dark"}))

	err := st.MergeArray(ctx, "settings", []any{"x"})
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestMergeArrayRejectsNilItems(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)

	require.ErrorIs(t, st.MergeArray(context.Background(), "events", nil), ErrInvalidValue)
}

func TestMergeArrayAllowsEmptyAppend(t *testing.T) {
	t.Parallel()

	st := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "events", []any{"boot"}))
	require.NoError(t, st.MergeArray(ctx, "events", []any{}))

	value, _, err := st.Get(ctx, "events")
	require.NoError(t, err)
	require.Equal(t, []any{"boot"}, value)
}
