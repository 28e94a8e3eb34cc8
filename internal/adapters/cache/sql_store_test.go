package cache

import (
	"context"
	"distance-oracle/internal/platform/db"
	"distance-oracle/internal/ports"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Postgres when TEST_DATABASE_URL is set.
func TestSQLStoreRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, url, 4)
	require.NoError(t, err)
	require.NoError(t, InitSchema(ctx, conn))

	store := NewSQLStore(conn, nil)
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now()
	store.now = func() time.Time { return now }

	key := "distances/test-" + now.Format(time.RFC3339Nano)
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	require.NoError(t, store.Set(ctx, key, "600", 900*time.Second))
	val, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "600", val)

	require.NoError(t, store.Set(ctx, key, "601", 900*time.Second))
	val, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "601", val)

	now = now.Add(600 * time.Second)
	val, left, err := store.GetWithTTL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "601", val)
	assert.InDelta(t, float64(300*time.Second), float64(left), float64(time.Millisecond))

	now = now.Add(301 * time.Second)
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestSQLStoreNilDB(t *testing.T) {
	store := NewSQLStore(nil, nil)

	_, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Set(context.Background(), "k", "1", time.Minute))
	_, _, err = store.GetWithTTL(context.Background(), "k")
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}
