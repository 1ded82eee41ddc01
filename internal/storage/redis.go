package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces fitbuddy keys inside a shared redis
const DefaultRedisPrefix = "fitbuddy:"

// RedisGateway stores each record as a plain redis string without expiry.
// Durability is whatever the server's persistence (AOF/RDB) provides.
type RedisGateway struct {
	client *redis.Client
	prefix string
}

// NewRedisGateway connects to redisURL and verifies the connection
func NewRedisGateway(ctx context.Context, redisURL, prefix string) (*RedisGateway, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisGateway{client: client, prefix: prefix}, nil
}

// Get implements Gateway
func (r *RedisGateway) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put implements Gateway
func (r *RedisGateway) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// Close implements Gateway
func (r *RedisGateway) Close() error {
	return r.client.Close()
}
