package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/orderhook/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInMemoryDeliveryCache(t *testing.T) {
	c := NewInMemoryDeliveryCache()
	defer c.Close()
	ctx := context.Background()

	t.Run("unknown key is not seen", func(t *testing.T) {
		seen, err := c.Seen(ctx, "shop/evt-1")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("remembered key is seen", func(t *testing.T) {
		require.NoError(t, c.Remember(ctx, "shop/evt-2", time.Hour))
		seen, err := c.Seen(ctx, "shop/evt-2")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("expired key is not seen", func(t *testing.T) {
		require.NoError(t, c.Remember(ctx, "shop/evt-3", 10*time.Millisecond))
		time.Sleep(20 * time.Millisecond)
		seen, err := c.Seen(ctx, "shop/evt-3")
		require.NoError(t, err)
		assert.False(t, seen)
	})
}

func TestInMemoryDeliveryCache_Cleanup(t *testing.T) {
	c := newInMemoryDeliveryCache(10 * time.Millisecond)
	defer c.Close()

	require.NoError(t, c.Remember(context.Background(), "short", time.Millisecond))
	require.NoError(t, c.Remember(context.Background(), "long", time.Hour))

	assert.Eventually(t, func() bool { return c.Size() == 1 }, time.Second, 10*time.Millisecond)
}

func TestInMemoryDeliveryCache_CloseTwice(t *testing.T) {
	c := NewInMemoryDeliveryCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestDeliveryCacheFactory(t *testing.T) {
	t.Run("disabled redis uses memory", func(t *testing.T) {
		f := NewDeliveryCacheFactory(config.RedisConfig{Enabled: false})
		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryDeliveryCache{}, c)
	})

	t.Run("unreachable redis falls back to memory with a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := NewDeliveryCacheFactory(
			config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			WithLogger(zap.New(core)),
		)
		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryDeliveryCache{}, c)
		assert.Equal(t, 1, logs.FilterMessage("Redis unavailable, falling back to in-memory delivery cache").Len())
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewDeliveryCacheFactory(
			config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			WithInMemoryFallback(false),
		)
		_, err := f.CreateCache()
		assert.Error(t, err)
	})
}
