package main

import (
	"go.uber.org/zap"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/cache"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/circuitbreaker"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/config"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
)

// cacheBackend is the configured chart cache backend. cache is nil when caching is off;
// ping and close are set only for memcached.
type cacheBackend struct {
	cache cache.Cache
	ping  func() error
	close func() error
}

func newChartCache(cfg *config.Config, logger *zap.Logger) (cacheBackend, error) {
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			return cacheBackend{}, err
		}
		breaker := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.CacheBreakerFailures,
			Cooldown:         cfg.CacheBreakerCooldown,
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.CacheBreakerState.Set(float64(to))
				logger.Warn("chart cache breaker transition",
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
		guarded := cache.NewGuardedCache(mc, breaker)
		logger.Info("chart cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
		return cacheBackend{
			cache: guarded,
			ping: func() error {
				if guarded.State() == circuitbreaker.StateOpen {
					return circuitbreaker.ErrOpen
				}
				return mc.Ping()
			},
			close: mc.Close,
		}, nil
	case "in_memory":
		logger.Info("chart cache backend: in_memory")
		return cacheBackend{cache: cache.NewInMemoryCache()}, nil
	default:
		logger.Info("chart cache disabled")
		return cacheBackend{}, nil
	}
}
