package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testSnapshot() *sellout.ReferenceSnapshot {
	return &sellout.ReferenceSnapshot{
		Products:  []sellout.Product{{ID: "P1", Brand: "Samsung", Model: "Galaxy A15", Category: sellout.CategorySmartphone, Price: decimal.NewFromInt(15000)}},
		Dealers:   []sellout.Dealer{{Code: "D1", ShopName: "Galaxy Corner"}},
		Employees: []sellout.Employee{{Code: "E1", Name: "Ravi", Role: sellout.RoleTSE}},
	}
}

func TestInMemoryReferenceCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	c := NewInMemoryReferenceCache()
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap := testSnapshot()
	require.NoError(t, c.Set(ctx, snap, time.Minute))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, snap, got)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}

func TestInMemoryReferenceCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryReferenceCache()
	require.NoError(t, c.Set(ctx, testSnapshot(), time.Hour))
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestRedisReferenceCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisReferenceCacheWithClient(client, "")
	defer c.Close()
	assert.Equal(t, DefaultReferenceKey, c.key)

	ctx := context.Background()
	_, ok, err := c.Get(ctx)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "failed to read reference snapshot")
	assert.ErrorContains(t, c.Set(ctx, testSnapshot(), time.Minute), "failed to write reference snapshot")
}

func TestReferenceCacheFactory(t *testing.T) {
	redisCfg := config.RedisConfig{Host: "cache.internal", Port: 6379}
	failing := func(RedisConfig) (ReferenceCache, error) { return nil, errors.New("dial tcp: refused") }

	t.Run("none disables caching", func(t *testing.T) {
		c, err := NewReferenceCacheFactory(config.CacheConfig{Backend: "none"}, redisCfg).Create()
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("memory", func(t *testing.T) {
		c, err := NewReferenceCacheFactory(config.CacheConfig{Backend: "memory"}, redisCfg).Create()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryReferenceCache{}, c)
	})

	t.Run("redis connects", func(t *testing.T) {
		f := NewReferenceCacheFactory(config.CacheConfig{Backend: "redis"}, redisCfg)
		var gotAddr string
		f.connectRedis = func(cfg RedisConfig) (ReferenceCache, error) {
			gotAddr = cfg.Host
			return NewInMemoryReferenceCache(), nil
		}
		_, err := f.Create()
		require.NoError(t, err)
		assert.Equal(t, "cache.internal", gotAddr)
	})

	t.Run("redis falls back to memory", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		f := NewReferenceCacheFactory(config.CacheConfig{Backend: "redis"}, redisCfg, WithLogger(zap.New(core)))
		f.connectRedis = failing

		c, err := f.Create()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryReferenceCache{}, c)
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("redis required", func(t *testing.T) {
		f := NewReferenceCacheFactory(config.CacheConfig{Backend: "redis"}, redisCfg, WithInMemoryFallback(false))
		f.connectRedis = failing

		_, err := f.Create()
		assert.ErrorContains(t, err, "redis reference cache unavailable")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewReferenceCacheFactory(config.CacheConfig{Backend: "memcached"}, redisCfg).Create()
		assert.Error(t, err)
	})
}
