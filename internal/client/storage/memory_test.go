package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_Contract(t *testing.T) {
	m := NewMemoryStorage()
	ctx := context.Background()

	_, ok, err := m.GetItem(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.SetItem(ctx, "k", "v"))
	require.NoError(t, m.SetItems(ctx, map[string]string{"a": "1", "k": "v2"}))
	require.Equal(t, 2, m.Len())

	v, ok, err := m.GetItem(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)

	require.NoError(t, m.RemoveItem(ctx, "k"))
	require.NoError(t, m.RemoveItem(ctx, "k"))
	require.Equal(t, 1, m.Len())
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*SQLiteStorage)(nil)
)
