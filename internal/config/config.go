// Package config handles configuration loading for the map search server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/mapsearch/internal/env"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Query    QueryConfig    `yaml:"query"`
	Refresh  RefreshConfig  `yaml:"refresh"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	CORSOrigins        []string `yaml:"cors_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	ReadTimeoutSec     int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSec    int      `yaml:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	Migrate      bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig contains server-side response caching settings.
type CacheConfig struct {
	TileSizeMB        int `yaml:"tile_size_mb"`
	TileTTLSeconds    int `yaml:"tile_ttl_seconds"`
	StaleAfterSeconds int `yaml:"stale_after_seconds"`
	SharedTTLSeconds  int `yaml:"shared_ttl_seconds"`
	CountCacheSize    int `yaml:"count_cache_size"`
	CountTTLSeconds   int `yaml:"count_ttl_seconds"`
}

// QueryConfig contains the tile query limits and response directives.
type QueryConfig struct {
	LowZoomLimit      int    `yaml:"low_zoom_limit"`
	HighZoomLimit     int    `yaml:"high_zoom_limit"`
	HighZoomThreshold int    `yaml:"high_zoom_threshold"`
	PlaceholderPhoto  string `yaml:"placeholder_photo"`
	CacheControl      string `yaml:"cache_control"`
}

type RefreshConfig struct {
	Workers  int `yaml:"workers"`
	Capacity int `yaml:"capacity"`
}

func (c CacheConfig) TileTTL() time.Duration { return time.Duration(c.TileTTLSeconds) * time.Second }
func (c CacheConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}
func (c CacheConfig) SharedTTL() time.Duration {
	return time.Duration(c.SharedTTLSeconds) * time.Second
}
func (c CacheConfig) CountTTL() time.Duration { return time.Duration(c.CountTTLSeconds) * time.Second }

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSec) * time.Second
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			cfg = &Config{}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			applyDefaults(cfg)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			CORSOrigins:        []string{"http://localhost:3000"},
			RateLimitPerMinute: 600,
			ReadTimeoutSec:     10,
			WriteTimeoutSec:    30,
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Cache: CacheConfig{
			TileSizeMB:        256,
			TileTTLSeconds:    60,
			StaleAfterSeconds: 300,
			SharedTTLSeconds:  900,
			CountCacheSize:    4096,
			CountTTLSeconds:   120,
		},
		Query: QueryConfig{
			LowZoomLimit:      250,
			HighZoomLimit:     1000,
			HighZoomThreshold: 14,
			PlaceholderPhoto:  "/images/listing-placeholder.jpg",
			CacheControl:      "public, max-age=60, s-maxage=300, stale-while-revalidate=600",
		},
		Refresh: RefreshConfig{
			Workers:  2,
			Capacity: 256,
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.RateLimitPerMinute == 0 {
		cfg.Server.RateLimitPerMinute = defaults.Server.RateLimitPerMinute
	}
	if cfg.Server.ReadTimeoutSec == 0 {
		cfg.Server.ReadTimeoutSec = defaults.Server.ReadTimeoutSec
	}
	if cfg.Server.WriteTimeoutSec == 0 {
		cfg.Server.WriteTimeoutSec = defaults.Server.WriteTimeoutSec
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaults.Database.Driver
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaults.Redis.Addr
	}
	if cfg.Cache.TileSizeMB == 0 {
		cfg.Cache.TileSizeMB = defaults.Cache.TileSizeMB
	}
	if cfg.Cache.TileTTLSeconds == 0 {
		cfg.Cache.TileTTLSeconds = defaults.Cache.TileTTLSeconds
	}
	if cfg.Cache.StaleAfterSeconds == 0 {
		cfg.Cache.StaleAfterSeconds = defaults.Cache.StaleAfterSeconds
	}
	if cfg.Cache.SharedTTLSeconds == 0 {
		cfg.Cache.SharedTTLSeconds = defaults.Cache.SharedTTLSeconds
	}
	if cfg.Cache.CountCacheSize == 0 {
		cfg.Cache.CountCacheSize = defaults.Cache.CountCacheSize
	}
	if cfg.Cache.CountTTLSeconds == 0 {
		cfg.Cache.CountTTLSeconds = defaults.Cache.CountTTLSeconds
	}
	if cfg.Query.LowZoomLimit == 0 {
		cfg.Query.LowZoomLimit = defaults.Query.LowZoomLimit
	}
	if cfg.Query.HighZoomLimit == 0 {
		cfg.Query.HighZoomLimit = defaults.Query.HighZoomLimit
	}
	if cfg.Query.HighZoomThreshold == 0 {
		cfg.Query.HighZoomThreshold = defaults.Query.HighZoomThreshold
	}
	if cfg.Query.PlaceholderPhoto == "" {
		cfg.Query.PlaceholderPhoto = defaults.Query.PlaceholderPhoto
	}
	if cfg.Query.CacheControl == "" {
		cfg.Query.CacheControl = defaults.Query.CacheControl
	}
	if cfg.Refresh.Workers == 0 {
		cfg.Refresh.Workers = defaults.Refresh.Workers
	}
	if cfg.Refresh.Capacity == 0 {
		cfg.Refresh.Capacity = defaults.Refresh.Capacity
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = env.GetInt("PORT", cfg.Server.Port)
	cfg.Database.Driver = env.Get("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = env.Get("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.Migrate = env.GetBool("DB_MIGRATE", cfg.Database.Migrate)
	cfg.Redis.Enabled = env.GetBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = env.Get("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = env.Get("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = env.GetInt("REDIS_DB", cfg.Redis.DB)
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Query.LowZoomLimit <= 0 || c.Query.HighZoomLimit < c.Query.LowZoomLimit {
		return fmt.Errorf("query limits must satisfy 0 < low_zoom_limit <= high_zoom_limit")
	}
	if c.Query.HighZoomThreshold < 0 || c.Query.HighZoomThreshold > 22 {
		return fmt.Errorf("query.high_zoom_threshold must be within 0-22")
	}
	return nil
}
