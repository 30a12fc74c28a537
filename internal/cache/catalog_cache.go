package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix  = "catalog:"
	versionKey = keyPrefix + "version"
)

// CatalogCache caches catalog reads in Redis under versioned keys.
// Invalidate bumps the version, which orphans every previous entry until
// it expires. A nil *CatalogCache is valid and caches nothing.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	log    *zap.Logger
}

// NewCatalogCache wraps an existing client.
func NewCatalogCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl, log: log}
}

// Connect parses redisURL, pings the server and returns the client.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Invalidate makes every cached catalog entry stale.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

func (c *CatalogCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so a concurrent Invalidate is never overwritten.
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	return v, err
}

func (c *CatalogCache) key(version int64, name string) string {
	return fmt.Sprintf("%sv%d:%s", keyPrefix, version, name)
}

// Load returns the value cached under name, or calls loader, caches its
// result and returns it. Concurrent misses for the same name share a single
// loader call. Redis failures are logged and fall through to the loader.
func Load[T any](ctx context.Context, c *CatalogCache, name string, loader func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return loader(ctx)
	}

	version, err := c.version(ctx)
	if err != nil {
		c.log.Warn("Catalog cache unavailable", zap.Error(err))
		return loader(ctx)
	}
	key := c.key(version, name)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.log.Warn("Discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return value, err
		}
		if raw, err := json.Marshal(value); err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.log.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
