package cache

import (
	"context"
	"distance-oracle/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "12.5", 900*time.Second))

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "12.5", val)

	now = now.Add(600 * time.Second)
	_, left, err := store.GetWithTTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, left)

	now = now.Add(300 * time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
	assert.Equal(t, 0, store.Len(), "expired entry should be removed on read")
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, store.Set(ctx, "b", "2", time.Minute))

	_, err = store.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "c", "3", time.Minute))

	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	_, err = store.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryStoreValidation(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)

	store, err := NewMemoryStore(1)
	require.NoError(t, err)

	assert.Error(t, store.Set(context.Background(), "", "1", time.Minute))
	assert.Error(t, store.Set(context.Background(), "k", "1", -time.Second))
}
