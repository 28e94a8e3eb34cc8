package cache

import (
	"context"
	"database/sql"
	"distance-oracle/internal/platform/obs"
	"distance-oracle/internal/ports"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SQLStore is a Postgres-backed CacheStore on a pooled *sql.DB.
// Expired rows are invisible to Get and removed by DeleteExpired.
type SQLStore struct {
	DB     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{DB: db, logger: logger, now: time.Now}
}

// Initialize the distance cache schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        cache_key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_expires_at
    ON distance_cache(expires_at);
	`

	statements := []string{
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Fetch a cached value that has not expired yet.
func (s *SQLStore) Get(ctx context.Context, key string) (_ string, err error) {
	defer obs.Time(ctx, s.logger, "distance.cache.sql.Get")(&err)

	if s.DB == nil {
		return "", errors.New("distance cache: db is nil")
	}

	if key == "" {
		return "", errors.New("get distance cache: key must not be empty")
	}

	q := `
	SELECT value
    FROM distance_cache
    WHERE cache_key = $1
        AND expires_at > $2;
	`

	var val string
	if err := s.DB.QueryRowContext(ctx, q, key, s.now()).Scan(&val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ports.ErrCacheMiss
		}
		return "", fmt.Errorf("get distance cache %q: %w: %w", key, ports.ErrCacheUnavailable, err)
	}

	return val, nil
}

// GetWithTTL fetches an unexpired value and the time left until expires_at.
func (s *SQLStore) GetWithTTL(ctx context.Context, key string) (_ string, _ time.Duration, err error) {
	defer obs.Time(ctx, s.logger, "distance.cache.sql.GetWithTTL")(&err)

	if s.DB == nil {
		return "", 0, errors.New("distance cache: db is nil")
	}

	if key == "" {
		return "", 0, errors.New("get distance cache: key must not be empty")
	}

	q := `
	SELECT value, expires_at
    FROM distance_cache
    WHERE cache_key = $1
        AND expires_at > $2;
	`

	now := s.now()

	var (
		val       string
		expiresAt time.Time
	)
	if err := s.DB.QueryRowContext(ctx, q, key, now).Scan(&val, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, ports.ErrCacheMiss
		}
		return "", 0, fmt.Errorf("get distance cache %q: %w: %w", key, ports.ErrCacheUnavailable, err)
	}

	return val, expiresAt.Sub(now), nil
}

// Store a value; an existing row for the key is replaced along with its expiry.
func (s *SQLStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if key == "" {
		return errors.New("insert distance cache: key must not be empty")
	}

	if ttl <= 0 {
		return fmt.Errorf("insert distance cache %q: ttl must be positive, got %s", key, ttl)
	}

	q := `
	INSERT INTO distance_cache (cache_key, value, expires_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE
	SET value = EXCLUDED.value,
		expires_at = EXCLUDED.expires_at;
	`

	if _, err := s.DB.ExecContext(ctx, q, key, value, s.now().Add(ttl)); err != nil {
		return fmt.Errorf("insert distance cache %q: %w: %w", key, ports.ErrCacheUnavailable, err)
	}

	return nil
}

// DeleteExpired removes rows whose TTL has elapsed and returns how many were removed.
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("distance cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM distance_cache WHERE expires_at <= $1;`, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge distance cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge distance cache: rows affected: %w", err)
	}

	return n, nil
}

func (s *SQLStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
