package cache

import (
	"context"
	"distance-oracle/internal/ports"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process CacheStore with bounded size and per-entry expiry.
// Least recently used entries are evicted once size is reached.
type MemoryStore struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memory store: size must be positive, got %d", size)
	}

	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}

	return &MemoryStore{entries: entries, now: time.Now}, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	val, _, err := s.GetWithTTL(ctx, key)
	return val, err
}

func (s *MemoryStore) GetWithTTL(_ context.Context, key string) (string, time.Duration, error) {
	e, ok := s.entries.Get(key)
	if !ok {
		return "", 0, ports.ErrCacheMiss
	}

	left := e.expiresAt.Sub(s.now())
	if left <= 0 {
		s.entries.Remove(key)
		return "", 0, ports.ErrCacheMiss
	}

	return e.value, left, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("memory store set: key must not be empty")
	}

	if ttl <= 0 {
		return fmt.Errorf("memory store set %q: ttl must be positive, got %s", key, ttl)
	}

	s.entries.Add(key, memoryEntry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (s *MemoryStore) Len() int { return s.entries.Len() }

func (s *MemoryStore) Close() error {
	s.entries.Purge()
	return nil
}
