package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"

	"github.com/dishbook/backend/internal/domain"
)

// RedisCache stores verdicts in Redis so they survive restarts and are shared
// between server instances.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds configuration for the Redis cache
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, config RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Mark(errors.Wrap(err, "connect to redis"), domain.ErrCacheUnavailable)
	}

	return &RedisCache{client: client, keyPrefix: config.KeyPrefix}, nil
}

func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, errors.Mark(errors.Wrap(err, "redis get"), domain.ErrCacheUnavailable)
	}
	return data, nil
}

// Set stores a value in Redis with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return errors.Mark(errors.Wrap(err, "redis set"), domain.ErrCacheUnavailable)
	}
	return nil
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return errors.Mark(errors.Wrap(err, "redis del"), domain.ErrCacheUnavailable)
	}
	return nil
}

// Exists checks if a key exists in Redis
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, errors.Mark(errors.Wrap(err, "redis exists"), domain.ErrCacheUnavailable)
	}
	return n > 0, nil
}

// Close closes the Redis connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
