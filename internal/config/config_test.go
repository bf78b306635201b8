package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdirTemp switches into a fresh directory for the duration of the test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	return dir
}

func writeEnvFile(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, name+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("ENV_NAME", "")
	t.Setenv("SERVER_PORT", "")
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8501" {
		t.Errorf("ServerPort = %q, want 8501", cfg.ServerPort)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 {
		t.Errorf("rate limit = %d/%d, want 20/40", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.HealthWindow != time.Minute || cfg.HealthErrorPct != 50 || cfg.OverloadThresholdPct != 80 {
		t.Errorf("health = %v/%d/%d, want 1m/50/80", cfg.HealthWindow, cfg.HealthErrorPct, cfg.OverloadThresholdPct)
	}
	if cfg.RenderSeed != 0 {
		t.Errorf("RenderSeed = %d, want 0", cfg.RenderSeed)
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	t.Setenv("ENV_NAME", "prod")
	t.Setenv("SERVER_PORT", "")
	dir := chdirTemp(t)
	writeEnvFile(t, dir, "prod", `
server:
  port: "9000"
  write_timeout: 20s
request:
  timeout: 3s
reliability:
  rate_limit_rps: 5
  rate_limit_burst: 7
shutdown:
  timeout: 15s
health:
  window: 2m
  error_pct: 10
render:
  seed: 99
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q, want 9000", cfg.ServerPort)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 7 {
		t.Errorf("rate limit = %d/%d, want 5/7", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
	if cfg.HealthWindow != 2*time.Minute || cfg.HealthErrorPct != 10 {
		t.Errorf("health = %v/%d, want 2m/10", cfg.HealthWindow, cfg.HealthErrorPct)
	}
	if cfg.RenderSeed != 99 {
		t.Errorf("RenderSeed = %d, want 99", cfg.RenderSeed)
	}
}

func TestLoad_ServerPortEnvOverride(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("SERVER_PORT", "7000")
	dir := chdirTemp(t)
	writeEnvFile(t, dir, "dev", "server:\n  port: \"9000\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "7000" {
		t.Errorf("ServerPort = %q, want env override 7000", cfg.ServerPort)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	dir := chdirTemp(t)
	writeEnvFile(t, dir, "dev", "server: [unclosed\n")

	cfg, err := Load()
	if err == nil {
		t.Fatalf("Load() = %+v, want parse error", cfg)
	}
	if !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %v, want parse config file error", err)
	}
}

func TestLoad_RejectsOutOfRangePct(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	dir := chdirTemp(t)
	writeEnvFile(t, dir, "dev", "health:\n  error_pct: 150\n")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "error_pct") {
		t.Errorf("Load() error = %v, want error_pct validation error", err)
	}
}

func TestValidate_CapsRequestTimeout(t *testing.T) {
	cfg := fromFile(fileConfig{})
	cfg.RequestTimeout = time.Minute
	cfg.WriteTimeout = 10 * time.Second
	if err := validate(cfg); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if cfg.RequestTimeout != 9*time.Second {
		t.Errorf("RequestTimeout = %v, want 9s", cfg.RequestTimeout)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"  ", time.Second},
		{"250ms", 250 * time.Millisecond},
		{"bogus", time.Second},
		{"-5s", time.Second},
		{"0s", time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, time.Second); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad_CacheSection(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("MEMCACHED_ADDRS", "")
	dir := chdirTemp(t)
	writeEnvFile(t, dir, "dev", `
cache:
  backend: Memcached
  ttl: 2m
  memcached_addrs: "mc1:11211,mc2:11211"
  breaker_failures: 3
  breaker_cooldown: 1m
  warm: true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheBackend != "memcached" || cfg.CacheTTL != 2*time.Minute || !cfg.WarmCache {
		t.Errorf("cache = %q/%v/%v, want memcached/2m/true", cfg.CacheBackend, cfg.CacheTTL, cfg.WarmCache)
	}
	if cfg.MemcachedAddrs != "mc1:11211,mc2:11211" {
		t.Errorf("MemcachedAddrs = %q", cfg.MemcachedAddrs)
	}
	if cfg.MemcachedTimeout != 500*time.Millisecond || cfg.MemcachedMaxIdleConns != 2 {
		t.Errorf("memcached client = %v/%d, want 500ms/2", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
	}
	if cfg.CacheBreakerFailures != 3 || cfg.CacheBreakerCooldown != time.Minute {
		t.Errorf("breaker = %d/%v, want 3/1m", cfg.CacheBreakerFailures, cfg.CacheBreakerCooldown)
	}
}

func TestLoad_CacheDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("ENV_NAME", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("MEMCACHED_ADDRS", "cache.internal:11211")
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheBackend != "in_memory" || cfg.CacheTTL != 10*time.Minute || cfg.WarmCache {
		t.Errorf("cache = %q/%v/%v, want in_memory/10m/false", cfg.CacheBackend, cfg.CacheTTL, cfg.WarmCache)
	}
	if cfg.MemcachedAddrs != "cache.internal:11211" {
		t.Errorf("MemcachedAddrs = %q, want env override", cfg.MemcachedAddrs)
	}
	if cfg.CacheBreakerFailures != 5 || cfg.CacheBreakerCooldown != 30*time.Second {
		t.Errorf("breaker = %d/%v, want 5/30s", cfg.CacheBreakerFailures, cfg.CacheBreakerCooldown)
	}
}

func TestLoad_RejectsUnknownCacheBackend(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("MEMCACHED_ADDRS", "")
	dir := chdirTemp(t)
	writeEnvFile(t, dir, "dev", "cache:\n  backend: redis\n")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "cache.backend") {
		t.Errorf("Load() error = %v, want cache.backend validation error", err)
	}
}
