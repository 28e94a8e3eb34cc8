package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned by CacheStore.Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable covers pool exhaustion, network failures and timeouts talking to the backend.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Key-value store with per-entry expiry.
type CacheStore interface {
	// Return the stored value or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)
	// Store value under key; the entry expires after ttl.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Release pooled connections.
	Close() error
}

// TTLGetter is implemented by stores that can report how long an entry has left.
type TTLGetter interface {
	// Return the stored value and its remaining lifetime, or ErrCacheMiss.
	// A zero lifetime means the entry never expires.
	GetWithTTL(ctx context.Context, key string) (string, time.Duration, error)
}
