package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sellout/backend/internal/domain/sellout"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisReferenceCache keeps the snapshot as one JSON document so every
// instance of the service reads the same reference tables
type RedisReferenceCache struct {
	client *redis.Client
	key    string
}

// NewRedisReferenceCache connects to Redis and verifies the connection
func NewRedisReferenceCache(cfg RedisConfig) (*RedisReferenceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisReferenceCache{client: client, key: DefaultReferenceKey}, nil
}

// NewRedisReferenceCacheWithClient wraps an existing client
func NewRedisReferenceCacheWithClient(client *redis.Client, key string) *RedisReferenceCache {
	if key == "" {
		key = DefaultReferenceKey
	}
	return &RedisReferenceCache{client: client, key: key}
}

// Get returns the cached snapshot; a missing key is a miss, not an error
func (c *RedisReferenceCache) Get(ctx context.Context) (*sellout.ReferenceSnapshot, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read reference snapshot: %w", err)
	}

	var snap sellout.ReferenceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to decode reference snapshot: %w", err)
	}
	return &snap, true, nil
}

// Set stores the snapshot with ttl
func (c *RedisReferenceCache) Set(ctx context.Context, snapshot *sellout.ReferenceSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode reference snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write reference snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot
func (c *RedisReferenceCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

// Ping checks the Redis connection
func (c *RedisReferenceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisReferenceCache) Close() error {
	return c.client.Close()
}

var _ ReferenceCache = (*RedisReferenceCache)(nil)
