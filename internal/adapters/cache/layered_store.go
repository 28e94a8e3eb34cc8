package cache

import (
	"context"
	"distance-oracle/internal/ports"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultL1MaxTTL caps how long an entry lives in the in-process layer.
const DefaultL1MaxTTL = time.Minute

// LayeredStore puts a fast in-process store (L1) in front of a shared one (L2).
// L2 hits backfill L1 for no longer than the entry has left in L2, so L1 never
// outlives L2. An L2 that cannot report remaining TTL is never backfilled from.
// Writes go to both. L1 failures never fail a request.
type LayeredStore struct {
	l1       ports.CacheStore
	l2       ports.CacheStore
	l1MaxTTL time.Duration
	logger   *zap.Logger
}

func NewLayeredStore(l1, l2 ports.CacheStore, l1MaxTTL time.Duration, logger *zap.Logger) *LayeredStore {
	if l1MaxTTL <= 0 {
		l1MaxTTL = DefaultL1MaxTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LayeredStore{l1: l1, l2: l2, l1MaxTTL: l1MaxTTL, logger: logger}
}

// Get reads L1, then L2. An L2 error other than a miss is returned as is.
func (s *LayeredStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.l1.Get(ctx, key)
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		s.logger.Warn("l1 cache get failed", zap.String("key", key), zap.Error(err))
	}

	l2, ok := s.l2.(ports.TTLGetter)
	if !ok {
		return s.l2.Get(ctx, key)
	}

	val, left, err := l2.GetWithTTL(ctx, key)
	if err != nil {
		return "", err
	}

	ttl := s.l1MaxTTL
	if left > 0 && left < ttl {
		ttl = left
	}

	if err := s.l1.Set(ctx, key, val, ttl); err != nil {
		s.logger.Warn("l1 cache backfill failed", zap.String("key", key), zap.Error(err))
	}

	return val, nil
}

// Set writes through to both layers. Only an L2 failure is reported.
func (s *LayeredStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	l1TTL := ttl
	if l1TTL > s.l1MaxTTL {
		l1TTL = s.l1MaxTTL
	}

	if err := s.l1.Set(ctx, key, value, l1TTL); err != nil {
		s.logger.Warn("l1 cache set failed", zap.String("key", key), zap.Error(err))
	}

	return s.l2.Set(ctx, key, value, ttl)
}

func (s *LayeredStore) Close() error {
	return errors.Join(s.l1.Close(), s.l2.Close())
}
