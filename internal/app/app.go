package app

import (
	"context"
	"fmt"

	"distance-oracle/internal/adapters/cache"
	"distance-oracle/internal/adapters/distance"
	"distance-oracle/internal/config"
	"distance-oracle/internal/oracle"
	"distance-oracle/internal/platform/db"
	"distance-oracle/internal/platform/obs"
	"distance-oracle/internal/ports"
	"distance-oracle/internal/resolver"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// App holds the wired oracle and the resources it owns.
type App struct {
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Oracle   *oracle.CostOracle

	store ports.CacheStore
}

// New wires the cache backend, routing provider, resolver and oracle from cfg.
// If provider is nil one is built from cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, provider ports.RouteProvider) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := obs.NewMetrics(reg)

	a := &App{Logger: logger, Registry: reg}

	store, err := a.buildStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.store = store

	if provider == nil {
		provider, err = buildProvider(cfg, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	res, err := resolver.New(store, provider, resolver.Options{
		TTL:             cfg.TTL(),
		DetourFactor:    cfg.DetourFactor,
		CacheTimeout:    cfg.CacheTimeout,
		ProviderTimeout: cfg.ProviderTimeout,
		Deduplicate:     cfg.DeduplicateMisses,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	a.Oracle, err = oracle.New(res, cfg.AverageSpeed, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	logger.Info("oracle ready",
		zap.String("provider", cfg.Provider),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Int("l1_size", cfg.L1CacheSize),
		zap.Int("ttl_s", cfg.CacheTTL),
		zap.Float64("detour_factor", cfg.DetourFactor),
	)

	return a, nil
}

func (a *App) buildStore(ctx context.Context, cfg config.Config) (ports.CacheStore, error) {
	var l2 ports.CacheStore

	switch cfg.CacheBackend {
	case "redis":
		rs, err := cache.NewRedisStore(cache.RedisConfig{
			URL:       cfg.CacheURL,
			PoolSize:  cfg.CachePoolSize,
			OpTimeout: cfg.CacheTimeout,
		})
		if err != nil {
			return nil, err
		}
		// An unreachable cache degrades to provider-only lookups.
		if err := rs.Ping(ctx); err != nil {
			a.Logger.Warn("cache ping failed", zap.Error(err))
		}
		if err := rs.RegisterPoolMetrics(a.Registry); err != nil {
			rs.Close()
			return nil, err
		}
		l2 = rs

	case "postgres":
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL, cfg.CachePoolSize)
		if err != nil {
			return nil, err
		}
		if err := cache.InitSchema(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
		l2 = cache.NewSQLStore(sqlDB, a.Logger)

	case "memory":
		ms, err := cache.NewMemoryStore(cfg.MemoryCacheSize)
		if err != nil {
			return nil, err
		}
		return ms, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	if cfg.L1CacheSize <= 0 {
		return l2, nil
	}

	l1, err := cache.NewMemoryStore(cfg.L1CacheSize)
	if err != nil {
		l2.Close()
		return nil, err
	}
	return cache.NewLayeredStore(l1, l2, cache.DefaultL1MaxTTL, a.Logger), nil
}

func buildProvider(cfg config.Config, logger *zap.Logger) (ports.RouteProvider, error) {
	switch cfg.Provider {
	case "google":
		return distance.NewGoogleDirectionsProvider(cfg.APIKey, cfg.ProviderBaseURL, cfg.ProviderTimeout, logger)
	case "ors":
		return distance.NewORSDirectionsProvider(cfg.APIKey, cfg.ProviderBaseURL, cfg.ProviderProfile, cfg.ProviderTimeout, logger)
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
	}
}

// Close releases the cache store and any connection pool behind it.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
