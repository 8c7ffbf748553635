package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "orderhook:delivery:"

// RedisDeliveryCache implements webhook.DeliveryCache using Redis so every
// receiver instance shares the memory of recorded deliveries.
type RedisDeliveryCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisDeliveryCache connects to Redis and verifies the connection
func NewRedisDeliveryCache(cfg RedisConfig) (*RedisDeliveryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDeliveryCacheWithClient(client, ""), nil
}

// NewRedisDeliveryCacheWithClient creates a cache with an existing Redis client
func NewRedisDeliveryCacheWithClient(client *redis.Client, keyPrefix string) *RedisDeliveryCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisDeliveryCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Client returns the underlying Redis client so other stores can share the
// connection pool
func (c *RedisDeliveryCache) Client() *redis.Client {
	return c.client
}

// Seen reports whether the delivery key is remembered
func (c *RedisDeliveryCache) Seen(ctx context.Context, key string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check delivery: %w", err)
	}
	return exists > 0, nil
}

// Remember stores the delivery key with a TTL
func (c *RedisDeliveryCache) Remember(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to remember delivery: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisDeliveryCache) Close() error {
	return c.client.Close()
}

// Ensure RedisDeliveryCache implements webhook.DeliveryCache
var _ webhook.DeliveryCache = (*RedisDeliveryCache)(nil)
