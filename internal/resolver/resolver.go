// Package resolver turns an ordered coordinate pair into a travel cost,
// memoizing provider answers in a TTL-bounded cache.
package resolver

import (
	"context"
	"distance-oracle/internal/domain"
	"distance-oracle/internal/platform/obs"
	"distance-oracle/internal/ports"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL             = 900 * time.Second
	DefaultDetourFactor    = 1.0
	DefaultCacheTimeout    = 500 * time.Millisecond
	DefaultProviderTimeout = 10 * time.Second

	keyPrefix = "distances/"
)

type Options struct {
	// Lifetime of a cached provider answer.
	TTL time.Duration
	// Multiplier applied to every resolved value, cached or fresh.
	// Zero selects DefaultDetourFactor; an explicit zero factor cannot be expressed.
	DetourFactor float64
	// Upper bound for a single cache Get or Set.
	CacheTimeout time.Duration
	// Upper bound for a single provider query.
	ProviderTimeout time.Duration
	// Collapse concurrent misses for the same key into one provider call.
	// Each caller still honours its own context while waiting.
	Deduplicate bool

	Logger  *zap.Logger
	Metrics *obs.Metrics
}

func (o Options) withDefaults() Options {
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.DetourFactor == 0 {
		o.DetourFactor = DefaultDetourFactor
	}
	if o.CacheTimeout == 0 {
		o.CacheTimeout = DefaultCacheTimeout
	}
	if o.ProviderTimeout == 0 {
		o.ProviderTimeout = DefaultProviderTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Resolver answers "what does it cost to go from A to B?".
// It checks the cache first, falls back to the provider on a miss and writes the
// raw provider value back with the configured TTL.
//
// The Resolver is safe for concurrent use. Two racing misses for the same pair
// may both call the provider unless Options.Deduplicate is set.
type Resolver struct {
	store    ports.CacheStore
	provider ports.RouteProvider
	opts     Options
	misses   atomic.Int64
	group    singleflight.Group
}

func New(store ports.CacheStore, provider ports.RouteProvider, opts Options) (*Resolver, error) {
	if provider == nil {
		return nil, errors.New("new resolver: provider is nil")
	}

	opts = opts.withDefaults()
	if opts.TTL < time.Second {
		return nil, fmt.Errorf("new resolver: ttl must be at least 1s, got %s", opts.TTL)
	}
	if opts.DetourFactor < 0 || math.IsNaN(opts.DetourFactor) || math.IsInf(opts.DetourFactor, 0) {
		return nil, fmt.Errorf("new resolver: detour factor must be a positive number, got %v", opts.DetourFactor)
	}
	if opts.CacheTimeout < 0 || opts.ProviderTimeout < 0 {
		return nil, errors.New("new resolver: timeouts must not be negative")
	}

	return &Resolver{store: store, provider: provider, opts: opts}, nil
}

// Key derives the directional cache key for an ordered pair.
func Key(from, to domain.Coordinates) string {
	return keyPrefix + from.Canonical() + ":" + to.Canonical()
}

// Misses returns how many cache misses have been resolved through the provider path.
func (r *Resolver) Misses() int64 { return r.misses.Load() }

// Resolve returns the travel cost from one coordinate to another, scaled by the
// detour factor. Identical points cost exactly zero and touch neither cache nor provider.
func (r *Resolver) Resolve(ctx context.Context, from, to domain.Coordinates) (_ float64, err error) {
	if !from.Valid() || !to.Valid() {
		return 0, fmt.Errorf("resolve %s -> %s: %w", from, to, domain.ErrMissingCoordinate)
	}

	if from.Canonical() == to.Canonical() {
		return 0, nil
	}

	start := time.Now()
	defer func() {
		if err == nil {
			r.opts.Metrics.Resolved(time.Since(start))
		}
	}()

	key := Key(from, to)

	if v, ok := r.lookup(ctx, key); ok {
		return v * r.opts.DetourFactor, nil
	}

	var raw float64
	if r.opts.Deduplicate {
		raw, err = r.fetchShared(ctx, key, from, to)
	} else {
		raw, err = r.fetch(ctx, key, from, to)
	}
	if err != nil {
		return 0, err
	}

	return raw * r.opts.DetourFactor, nil
}

// lookup reads the cache. Misses, backend failures and corrupt entries all
// report ok=false; only the latter two are logged.
func (r *Resolver) lookup(ctx context.Context, key string) (float64, bool) {
	if r.store == nil {
		return 0, false
	}

	cctx, cancel := context.WithTimeout(ctx, r.opts.CacheTimeout)
	defer cancel()

	val, err := r.store.Get(cctx, key)
	if err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			r.opts.Metrics.CacheResult("miss")
			return 0, false
		}
		r.opts.Metrics.CacheResult("error")
		r.opts.Logger.Warn("cache get failed, falling through to provider",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0, false
	}

	v, err := strconv.ParseFloat(val, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		r.opts.Metrics.CacheResult("error")
		r.opts.Logger.Warn("ignoring corrupt cache entry",
			zap.String("key", key),
			zap.String("value", val),
		)
		return 0, false
	}

	r.opts.Metrics.CacheResult("hit")
	return v, true
}

// fetch performs the single provider call for a miss and writes the result back.
func (r *Resolver) fetch(ctx context.Context, key string, from, to domain.Coordinates) (float64, error) {
	v, err := r.query(ctx, from, to)
	if err != nil {
		return 0, err
	}

	// An abandoned resolution leaves the cache untouched.
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("resolve %s -> %s: %w", from, to, err)
	}

	r.remember(ctx, key, v)
	return v, nil
}

// flight is the result of one provider call shared by concurrent callers.
// The first caller still waiting when it lands writes it back.
type flight struct {
	value float64
	write sync.Once
}

// fetchShared joins or starts the in-flight provider call for key. The call runs
// detached from any one caller, bounded by the provider timeout, so a caller
// that gives up neither fails nor cancels the others.
func (r *Resolver) fetchShared(ctx context.Context, key string, from, to domain.Coordinates) (float64, error) {
	ch := r.group.DoChan(key, func() (any, error) {
		v, err := r.query(context.WithoutCancel(ctx), from, to)
		if err != nil {
			return nil, err
		}
		return &flight{value: v}, nil
	})

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("resolve %s -> %s: %w", from, to, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("resolve %s -> %s: %w", from, to, err)
		}

		f := res.Val.(*flight)
		f.write.Do(func() { r.remember(ctx, key, f.value) })
		return f.value, nil
	}
}

// query asks the provider once and validates its answer.
func (r *Resolver) query(ctx context.Context, from, to domain.Coordinates) (float64, error) {
	n := r.misses.Inc()

	pctx, cancel := context.WithTimeout(ctx, r.opts.ProviderTimeout)
	defer cancel()

	start := time.Now()
	res, err := r.provider.Query(pctx, from, to)
	dur := time.Since(start)
	if err != nil {
		r.opts.Metrics.ProviderCall(outcome(err), dur)
		return 0, fmt.Errorf("resolve %s -> %s: %w", from, to, err)
	}
	r.opts.Metrics.ProviderCall("ok", dur)

	if res.DurationSeconds < 0 || math.IsNaN(res.DurationSeconds) || math.IsInf(res.DurationSeconds, 0) {
		return 0, fmt.Errorf("resolve %s -> %s: provider returned %v: %w", from, to, res.DurationSeconds, ports.ErrNoRouteFound)
	}

	r.opts.Logger.Info("calculated cost",
		zap.Int64("miss", n),
		zap.String("from", from.Canonical()),
		zap.String("to", to.Canonical()),
		zap.Float64("duration_s", res.DurationSeconds),
		zap.Float64("distance_m", res.DistanceMeters),
		zap.Int64("provider_ms", dur.Milliseconds()),
	)

	return res.DurationSeconds, nil
}

// remember writes the raw value back. Failures are logged and swallowed.
func (r *Resolver) remember(ctx context.Context, key string, v float64) {
	if r.store == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, r.opts.CacheTimeout)
	defer cancel()

	if err := r.store.Set(cctx, key, strconv.FormatFloat(v, 'f', -1, 64), r.opts.TTL); err != nil {
		r.opts.Metrics.CacheWriteFailed()
		r.opts.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ports.ErrNoRouteFound):
		return "no_route"
	case errors.Is(err, ports.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unavailable"
	}
}
