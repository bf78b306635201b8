package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration loaded from YAML and env.
// The dataset location is not part of it: the dashboard always reads dataset.DefaultPath.
type Config struct {
	ServerPort   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	RequestTimeout time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	HealthWindow         time.Duration
	HealthErrorPct       int
	OverloadThresholdPct int

	// RenderSeed seeds random post sampling. 0 means seed from the clock.
	RenderSeed int64

	// CacheBackend is "in_memory", "memcached" or "none".
	CacheBackend          string
	CacheTTL              time.Duration
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
	// Consecutive memcached failures that open the cache circuit breaker, and how long it stays open.
	CacheBreakerFailures int
	CacheBreakerCooldown time.Duration
	WarmCache            bool
}

type fileConfig struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Health struct {
		Window               string `yaml:"window"`
		ErrorPct             int    `yaml:"error_pct"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
	} `yaml:"health"`

	Render struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"render"`

	Cache struct {
		Backend               string `yaml:"backend"`
		TTL                   string `yaml:"ttl"`
		MemcachedAddrs        string `yaml:"memcached_addrs"`
		MemcachedTimeout      string `yaml:"memcached_timeout"`
		MemcachedMaxIdleConns int    `yaml:"memcached_max_idle_conns"`
		BreakerFailures       int    `yaml:"breaker_failures"`
		BreakerCooldown       string `yaml:"breaker_cooldown"`
		Warm                  bool   `yaml:"warm"`
	} `yaml:"cache"`
}

// Load reads an optional .env, then config/{ENV_NAME}.yaml (default dev) relative to the
// working directory. A missing YAML file yields defaults; a malformed one is an error.
// SERVER_PORT overrides server.port and MEMCACHED_ADDRS overrides cache.memcached_addrs.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := fromFile(fc)
	if port := strings.TrimSpace(os.Getenv("SERVER_PORT")); port != "" {
		cfg.ServerPort = port
	}
	if addrs := strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")); addrs != "" {
		cfg.MemcachedAddrs = addrs
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(fc fileConfig) *Config {
	cfg := &Config{}

	cfg.ServerPort = strings.TrimSpace(fc.Server.Port)
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8501"
	}
	cfg.ReadTimeout = parseDuration(fc.Server.ReadTimeout, 10*time.Second)
	cfg.WriteTimeout = parseDuration(fc.Server.WriteTimeout, 30*time.Second)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 20
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 2 * cfg.RateLimitRPS
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.HealthWindow = parseDuration(fc.Health.Window, time.Minute)
	cfg.HealthErrorPct = fc.Health.ErrorPct
	if cfg.HealthErrorPct <= 0 {
		cfg.HealthErrorPct = 50
	}
	cfg.OverloadThresholdPct = fc.Health.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}

	cfg.RenderSeed = fc.Render.Seed

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(fc.Cache.Backend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 10*time.Minute)
	cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.MemcachedAddrs)
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.MemcachedTimeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.MemcachedMaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.CacheBreakerFailures = fc.Cache.BreakerFailures
	if cfg.CacheBreakerFailures <= 0 {
		cfg.CacheBreakerFailures = 5
	}
	cfg.CacheBreakerCooldown = parseDuration(fc.Cache.BreakerCooldown, 30*time.Second)
	cfg.WarmCache = fc.Cache.Warm
	return cfg
}

// parseDuration parses a duration string and returns defaultVal if it is empty, invalid or <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load checks. RequestTimeout is capped below WriteTimeout so the
// timeout middleware fires before the server drops the connection.
func validate(cfg *Config) error {
	if cfg.HealthErrorPct > 100 {
		return fmt.Errorf("health.error_pct must be in 1..100, got %d", cfg.HealthErrorPct)
	}
	if cfg.OverloadThresholdPct > 100 {
		return fmt.Errorf("health.overload_threshold_pct must be in 1..100, got %d", cfg.OverloadThresholdPct)
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "none":
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or none, got %q", cfg.CacheBackend)
	}
	if cfg.HealthWindow > 10*time.Minute {
		return fmt.Errorf("health.window must be at most 10m, got %s", cfg.HealthWindow)
	}
	if cfg.RequestTimeout >= cfg.WriteTimeout {
		cfg.RequestTimeout = cfg.WriteTimeout * 9 / 10
	}
	return nil
}
