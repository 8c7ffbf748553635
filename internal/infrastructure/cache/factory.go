package cache

import (
	"fmt"

	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DeliveryCacheFactory creates delivery caches based on configuration
type DeliveryCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DeliveryCacheFactoryOption is a functional option for configuring the factory
type DeliveryCacheFactoryOption func(*DeliveryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DeliveryCacheFactoryOption {
	return func(f *DeliveryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis is unavailable
func WithInMemoryFallback(allow bool) DeliveryCacheFactoryOption {
	return func(f *DeliveryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDeliveryCacheFactory creates a new factory
func NewDeliveryCacheFactory(cfg config.RedisConfig, opts ...DeliveryCacheFactoryOption) *DeliveryCacheFactory {
	f := &DeliveryCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache returns a Redis cache when Redis is enabled and reachable,
// otherwise an in-memory cache if fallback is allowed. A memory cache only
// short-circuits redeliveries to the same instance; the event store's
// unique index still rejects the rest.
func (f *DeliveryCacheFactory) CreateCache() (webhook.DeliveryCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory delivery cache")
		return NewInMemoryDeliveryCache(), nil
	}

	c, err := NewRedisDeliveryCache(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis delivery cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for delivery cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory delivery cache", zap.Error(err))
	return NewInMemoryDeliveryCache(), nil
}
