package cache

import (
	"context"
	"errors"
	"time"

	"github.com/mkadlec/binsim/internal/circuitbreaker"
	"github.com/mkadlec/binsim/internal/observability"
)

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping() error
}

// Closer is implemented by backends holding network connections.
type Closer interface {
	Close() error
}

// BreakerCache wraps a Cache with a circuit breaker. While the breaker is
// open, Get and GetStale report misses and Set is a no-op, so a dead backend
// costs one failed call per timeout window instead of a timeout per request.
type BreakerCache struct {
	inner   Cache
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerCache wraps inner with cb.
func NewBreakerCache(inner Cache, cb *circuitbreaker.CircuitBreaker) *BreakerCache {
	return &BreakerCache{inner: inner, breaker: cb}
}

// Get implements Cache.Get. An open circuit reads as a miss.
func (c *BreakerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var ok bool
	err := c.breaker.Call(ctx, func() error {
		var callErr error
		value, ok, callErr = c.inner.Get(ctx, key)
		return callErr
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			observability.CacheErrorsTotal.WithLabelValues("get", "breaker_open").Inc()
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, ok, nil
}

// GetStale implements Cache.GetStale. An open circuit reads as a miss.
func (c *BreakerCache) GetStale(ctx context.Context, key string, maxAge time.Duration) ([]byte, time.Time, bool, error) {
	var value []byte
	var storedAt time.Time
	var ok bool
	err := c.breaker.Call(ctx, func() error {
		var callErr error
		value, storedAt, ok, callErr = c.inner.GetStale(ctx, key, maxAge)
		return callErr
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			observability.CacheErrorsTotal.WithLabelValues("get_stale", "breaker_open").Inc()
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}
	return value, storedAt, ok, nil
}

// Set implements Cache.Set. An open circuit drops the write.
func (c *BreakerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.breaker.Call(ctx, func() error {
		return c.inner.Set(ctx, key, value, ttl)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		observability.CacheErrorsTotal.WithLabelValues("set", "breaker_open").Inc()
		return nil
	}
	return err
}

// Ping delegates to the wrapped backend when it supports reachability checks.
func (c *BreakerCache) Ping() error {
	if p, ok := c.inner.(Pinger); ok {
		return p.Ping()
	}
	return nil
}

// Close delegates to the wrapped backend when it holds connections.
func (c *BreakerCache) Close() error {
	if cl, ok := c.inner.(Closer); ok {
		return cl.Close()
	}
	return nil
}
