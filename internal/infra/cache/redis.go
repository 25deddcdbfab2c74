// Package cache provides an optional Redis-backed response cache for
// the serving read path. Serving works identically without it; the
// cache only shaves repeated similarity lookups between training runs.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	pkgconfig "shop-reco/pkg/config"
)

// DefaultTTL bounds staleness between a training run replacing the
// derived tables and cached responses expiring.
const DefaultTTL = 5 * time.Minute

// TTL bounds. Anything under a second churns Redis for no hit-rate
// gain; anything over an hour serves a retired model's output long
// after a training run replaced the tables.
const (
	minTTL = 1 * time.Second
	maxTTL = 1 * time.Hour
)

// RedisCache caches serialized responses with a fixed TTL. All
// failures are soft: a read error is a miss, a write error is logged
// and dropped.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis at addr and verifies the connection.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	if err := pkgconfig.ValidateDurationRange(ttl, minTTL, maxTTL); err != nil {
		slog.Warn("cache TTL out of range, using default",
			slog.String("error", err.Error()),
			slog.Duration("default", DefaultTTL))
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// FromEnv creates a cache from REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
// and CACHE_TTL. An unset REDIS_ADDR disables caching: the call
// returns (nil, nil) and callers run uncached.
func FromEnv() (*RedisCache, error) {
	addr := pkgconfig.GetEnvString("REDIS_ADDR", "")
	if addr == "" {
		return nil, nil
	}
	return NewRedisCache(
		addr,
		pkgconfig.GetEnvString("REDIS_PASSWORD", ""),
		pkgconfig.GetEnvInt("REDIS_DB", 0),
		pkgconfig.GetEnvDuration("CACHE_TTL", DefaultTTL),
	)
}

// Get returns the cached value for key. Any error, including a plain
// miss, reports ok=false.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key with the configured TTL, best-effort.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Close releases the client connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
