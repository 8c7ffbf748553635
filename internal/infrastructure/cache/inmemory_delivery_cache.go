package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/orderhook/internal/domain/webhook"
)

// InMemoryDeliveryCache implements webhook.DeliveryCache with a map.
// It is suitable for single-instance deployments and tests.
type InMemoryDeliveryCache struct {
	mu        sync.RWMutex
	entries   map[string]time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDeliveryCache creates a cache and starts its cleanup goroutine
func NewInMemoryDeliveryCache() *InMemoryDeliveryCache {
	return newInMemoryDeliveryCache(5 * time.Minute)
}

func newInMemoryDeliveryCache(cleanupInterval time.Duration) *InMemoryDeliveryCache {
	c := &InMemoryDeliveryCache{
		entries:  make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.cleanupLoop(cleanupInterval)
	return c
}

// Seen reports whether key was remembered and has not expired
func (c *InMemoryDeliveryCache) Seen(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiresAt, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiresAt), nil
}

// Remember stores key until ttl elapses
func (c *InMemoryDeliveryCache) Remember(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = time.Now().Add(ttl)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryDeliveryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryDeliveryCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryDeliveryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, expiresAt := range c.entries {
		if now.After(expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries held
func (c *InMemoryDeliveryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryDeliveryCache implements webhook.DeliveryCache
var _ webhook.DeliveryCache = (*InMemoryDeliveryCache)(nil)
