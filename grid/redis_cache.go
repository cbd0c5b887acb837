package grid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voltmesh/voltmesh/core"
)

// RedisCacheConfig describes the connection and caching parameters for a
// Redis-backed forecast cache.
type RedisCacheConfig struct {
	Address  string
	Password string
	DB       int
	// KeyPrefix namespaces cache entries; defaults to "voltmesh:forecast".
	KeyPrefix string
	// TTL bounds how stale a cached forecast may be; defaults to 5 minutes.
	TTL time.Duration
}

// RedisCache wraps a SignalSource and caches forecast slices in Redis so
// multiple voltmesh instances (or repeated cycles) share one upstream fetch.
// Current signals are never cached; they must reflect live grid conditions.
type RedisCache struct {
	source SignalSource
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and wraps the given source.
func NewRedisCache(source SignalSource, cfg RedisCacheConfig) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address must not be empty")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "voltmesh:forecast"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisCache{source: source, client: client, prefix: prefix, ttl: ttl}, nil
}

// Current implements SignalSource by delegating straight to the wrapped source.
func (c *RedisCache) Current(ctx context.Context) (core.EnergySignal, error) {
	return c.source.Current(ctx)
}

// Forecast implements SignalSource. A cache hit returns the stored slice; a
// miss (or a Redis read failure) falls through to the wrapped source and
// stores the result with the configured TTL.
func (c *RedisCache) Forecast(ctx context.Context, hours int) ([]core.EnergySignal, error) {
	key := fmt.Sprintf("%s:%dh", c.prefix, hours)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached []core.EnergySignal
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Corrupt entry: drop it and refetch.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	signals, err := c.source.Forecast(ctx, hours)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(signals); err == nil {
		c.client.Set(ctx, key, encoded, c.ttl)
	}
	return signals, nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error { return c.client.Close() }

var _ SignalSource = (*RedisCache)(nil)
