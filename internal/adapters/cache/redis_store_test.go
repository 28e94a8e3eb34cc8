package cache

import (
	"context"
	"distance-oracle/internal/ports"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{
		URL:         "redis://" + mr.Addr(),
		PoolSize:    4,
		PoolTimeout: time.Second,
		OpTimeout:   time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisStoreGetMiss(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "distances/a:b")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestRedisStoreSetGetWithTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "distances/a:b", "321", 900*time.Second))

	val, err := store.Get(ctx, "distances/a:b")
	require.NoError(t, err)
	assert.Equal(t, "321", val)
	assert.Equal(t, 900*time.Second, mr.TTL("distances/a:b"))

	mr.FastForward(899 * time.Second)
	_, err = store.Get(ctx, "distances/a:b")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = store.Get(ctx, "distances/a:b")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestRedisStoreGetWithTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	_, _, err := store.GetWithTTL(ctx, "distances/a:b")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	require.NoError(t, store.Set(ctx, "distances/a:b", "321", 900*time.Second))
	mr.FastForward(600 * time.Second)

	val, left, err := store.GetWithTTL(ctx, "distances/a:b")
	require.NoError(t, err)
	assert.Equal(t, "321", val)
	assert.Equal(t, 300*time.Second, left)

	require.NoError(t, mr.Set("distances/c:d", "5"))
	_, left, err = store.GetWithTTL(ctx, "distances/c:d")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestRedisStoreRejectsInvalidInput(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	assert.Error(t, store.Set(ctx, "", "1", time.Minute))
	assert.Error(t, store.Set(ctx, "k", "1", 0))

	_, err := store.Get(ctx, "")
	assert.Error(t, err)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	mr.Close()

	_, err := store.Get(ctx, "distances/a:b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrCacheUnavailable)
	assert.NotErrorIs(t, err, ports.ErrCacheMiss)

	err = store.Set(ctx, "distances/a:b", "1", time.Minute)
	assert.ErrorIs(t, err, ports.ErrCacheUnavailable)

	assert.ErrorIs(t, store.Ping(ctx), ports.ErrCacheUnavailable)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{})
	assert.Error(t, err)

	_, err = NewRedisStore(RedisConfig{URL: "http://localhost:6379"})
	assert.Error(t, err)
}

func TestRedisStoreConcurrentAccess(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.NoError(t, store.Set(ctx, "concurrent", "42", time.Minute))
				val, err := store.Get(ctx, "concurrent")
				if assert.NoError(t, err) {
					assert.Equal(t, "42", val)
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, store.client.PoolStats().TotalConns, uint32(4))
}

func TestRedisStoreRegisterPoolMetrics(t *testing.T) {
	store, _ := newTestRedisStore(t)
	reg := prometheus.NewRegistry()

	require.NoError(t, store.RegisterPoolMetrics(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)

	assert.Error(t, store.RegisterPoolMetrics(reg), "duplicate registration should fail")
}
