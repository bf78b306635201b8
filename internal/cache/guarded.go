package cache

import (
	"context"
	"time"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/circuitbreaker"
)

// GuardedCache routes every call to a shared backend through a circuit breaker,
// so an unreachable memcached costs one fast error per request instead of a timeout.
// A miss is a success; only backend errors count against the breaker.
type GuardedCache struct {
	next    Cache
	breaker *circuitbreaker.Breaker
}

// NewGuardedCache wraps next with breaker.
func NewGuardedCache(next Cache, breaker *circuitbreaker.Breaker) *GuardedCache {
	return &GuardedCache{next: next, breaker: breaker}
}

// Get implements Cache.Get.
func (g *GuardedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		body []byte
		ok   bool
	)
	err := g.breaker.Do(func() error {
		var err error
		body, ok, err = g.next.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return body, ok, nil
}

// Set implements Cache.Set.
func (g *GuardedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Do(func() error {
		return g.next.Set(ctx, key, value, ttl)
	})
}

// State reports the breaker state for health output.
func (g *GuardedCache) State() circuitbreaker.State {
	return g.breaker.State()
}
