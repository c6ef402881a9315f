// Package cache provides the Redis read-through cache and the post view
// counter. The board works without Redis; every operation degrades to a
// no-op or a miss when the client is absent.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enxxi/v-board/pkg/logger"
)

// Cache wraps a Redis client. A nil inner client means caching is
// disabled and every lookup is a miss.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at addr. Connection failure is not fatal: the
// board serves from Postgres alone, just without the cache.
func New(ctx context.Context, addr string) *Cache {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn(ctx, "redis unavailable, running without cache", "addr", addr, "error", err)
		return &Cache{}
	}

	return &Cache{client: client}
}

// Disabled returns a cache that always misses. Tests and cache-less
// deployments use this.
func Disabled() *Cache {
	return &Cache{}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON reads the key and unmarshals into dest. Returns (false, nil)
// on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c.client == nil {
		return false, nil
	}

	s, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}

	return true, nil
}

// SetJSON marshals v and stores it with a TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}

	return c.client.Set(ctx, key, b, ttl).Err()
}

// Delete drops keys, typically after a write invalidates them.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Aside tries the cache first; on miss it calls fetch, which must write
// into dest, then stores the result best-effort.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		// Degrade to the source rather than failing the read.
		logger.Warn(ctx, "cache read failed, falling back to store", "key", key, "error", err)
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}
