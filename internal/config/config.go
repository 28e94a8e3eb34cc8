package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the oracle's configuration surface. It is read once at startup
// and never mutated afterwards.
type Config struct {
	Provider        string        `mapstructure:"ROUTING_PROVIDER"`
	APIKey          string        `mapstructure:"ROUTING_API_KEY"`
	ProviderBaseURL string        `mapstructure:"ROUTING_BASE_URL"`
	ProviderProfile string        `mapstructure:"ROUTING_PROFILE"`
	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`

	CacheBackend  string        `mapstructure:"CACHE_BACKEND"`
	CacheURL      string        `mapstructure:"CACHE_URL"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	CachePoolSize int           `mapstructure:"CACHE_POOL_SIZE"`
	CacheTTL      int           `mapstructure:"CACHE_TTL_SECONDS"`
	CacheTimeout  time.Duration `mapstructure:"CACHE_TIMEOUT"`
	// Entries kept in front of a shared backend; 0 disables the layer.
	L1CacheSize int `mapstructure:"L1_CACHE_SIZE"`
	// Capacity of the memory backend itself.
	MemoryCacheSize int `mapstructure:"MEMORY_CACHE_SIZE"`

	DetourFactor      float64 `mapstructure:"DETOUR_FACTOR"`
	AverageSpeed      float64 `mapstructure:"AVERAGE_SPEED"`
	DeduplicateMisses bool    `mapstructure:"DEDUPLICATE_MISSES"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	Port      string `mapstructure:"PORT"`
}

var defaults = map[string]any{
	"ROUTING_PROVIDER":   "google",
	"ROUTING_API_KEY":    "",
	"ROUTING_BASE_URL":   "",
	"ROUTING_PROFILE":    "driving-car",
	"PROVIDER_TIMEOUT":   "10s",
	"CACHE_BACKEND":      "redis",
	"CACHE_URL":          "redis://localhost:6379/0",
	"DATABASE_URL":       "",
	"CACHE_POOL_SIZE":    10,
	"CACHE_TTL_SECONDS":  900,
	"CACHE_TIMEOUT":      "500ms",
	"L1_CACHE_SIZE":      0,
	"MEMORY_CACHE_SIZE":  10000,
	"DETOUR_FACTOR":      1.0,
	"AVERAGE_SPEED":      1.0,
	"DEDUPLICATE_MISSES": false,
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "json",
	"PORT":               "8080",
}

// Load reads an optional .env file and then the environment.
// Environment variables win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load config: read .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: decode: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the oracle cannot run with.
func (c Config) Validate() error {
	switch c.Provider {
	case "google", "ors":
	default:
		return fmt.Errorf("ROUTING_PROVIDER must be google or ors, got %q", c.Provider)
	}

	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("ROUTING_API_KEY is required")
	}

	switch c.CacheBackend {
	case "redis":
		if strings.TrimSpace(c.CacheURL) == "" {
			return errors.New("CACHE_URL is required for the redis backend")
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case "memory":
		if c.MemoryCacheSize <= 0 {
			return fmt.Errorf("MEMORY_CACHE_SIZE must be positive for the memory backend, got %d", c.MemoryCacheSize)
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be redis, postgres or memory, got %q", c.CacheBackend)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %d", c.CacheTTL)
	}
	if c.CachePoolSize <= 0 {
		return fmt.Errorf("CACHE_POOL_SIZE must be positive, got %d", c.CachePoolSize)
	}
	if c.L1CacheSize < 0 {
		return fmt.Errorf("L1_CACHE_SIZE must not be negative, got %d", c.L1CacheSize)
	}
	if c.CacheTimeout <= 0 || c.ProviderTimeout <= 0 {
		return errors.New("CACHE_TIMEOUT and PROVIDER_TIMEOUT must be positive")
	}
	if c.DetourFactor <= 0 {
		return fmt.Errorf("DETOUR_FACTOR must be positive, got %v", c.DetourFactor)
	}
	if c.AverageSpeed <= 0 {
		return fmt.Errorf("AVERAGE_SPEED must be positive, got %v", c.AverageSpeed)
	}

	return nil
}

// TTL returns the cache TTL as a duration.
func (c Config) TTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
