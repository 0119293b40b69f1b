package cache

import (
	"fmt"

	"github.com/sellout/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReferenceCacheFactory builds the reference cache selected by configuration
type ReferenceCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connectRedis          func(RedisConfig) (ReferenceCache, error)
}

// ReferenceCacheFactoryOption is a functional option for configuring the factory
type ReferenceCacheFactoryOption func(*ReferenceCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReferenceCacheFactoryOption {
	return func(f *ReferenceCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) ReferenceCacheFactoryOption {
	return func(f *ReferenceCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReferenceCacheFactory creates a new factory
func NewReferenceCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...ReferenceCacheFactoryOption) *ReferenceCacheFactory {
	f := &ReferenceCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connectRedis: func(cfg RedisConfig) (ReferenceCache, error) {
			return NewRedisReferenceCache(cfg)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured cache, or nil when caching is disabled
func (f *ReferenceCacheFactory) Create() (ReferenceCache, error) {
	switch f.cacheConfig.Backend {
	case "none":
		f.logger.Info("Reference cache disabled")
		return nil, nil
	case "memory", "":
		f.logger.Info("Using in-memory reference cache")
		return NewInMemoryReferenceCache(), nil
	case "redis":
		c, err := f.connectRedis(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		})
		if err == nil {
			f.logger.Info("Using Redis reference cache", zap.String("addr", f.redisConfig.Addr()))
			return c, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis reference cache unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory reference cache. "+
			"Instances will not share reference snapshots.",
			zap.Error(err),
		)
		return NewInMemoryReferenceCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}
