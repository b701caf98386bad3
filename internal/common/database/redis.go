// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"creators-club/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client redis.Cmdable
	closer interface{ Close() error }
}

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &RedisClient{Client: rdb, closer: rdb}, nil
}

// NewRedisFromClient wraps an existing client, e.g. one from redismock.
func NewRedisFromClient(c redis.Cmdable) *RedisClient {
	rc := &RedisClient{Client: c}
	if closer, ok := c.(interface{ Close() error }); ok {
		rc.closer = closer
	}
	return rc
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Claim sets key only if it does not exist yet. It reports true when this
// call created the key.
func (c *RedisClient) Claim(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	ok, err := c.Client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes a claimed key.
func (c *RedisClient) Release(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}
