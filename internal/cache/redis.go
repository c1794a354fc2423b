package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// RedisCache implements Cache using redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache and verifies the server is reachable.
// password may be empty; db 0 is the default database.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) key(k string) string {
	return keyPrefix + k
}

// Get implements Cache.Get. Returns false, nil on cache miss or on an entry
// past its freshness window; false, err on backend error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, false, err
	}
	if !env.fresh(time.Now()) {
		return nil, false, nil
	}
	return env.Value, true, nil
}

// GetStale implements Cache.GetStale.
func (c *RedisCache) GetStale(ctx context.Context, key string, maxAge time.Duration) ([]byte, time.Time, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	if time.Since(env.StoredAt) > maxAge {
		return nil, time.Time{}, false, nil
	}
	return env.Value, env.StoredAt, true, nil
}

// Set implements Cache.Set.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	raw, err := encodeEnvelope(value, ttl)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), raw, physicalTTL(ttl)).Err()
}

// Ping checks if redis is reachable. Used for health checks.
func (c *RedisCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close closes the redis client connections. Call during shutdown.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
