package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dishbook/backend/internal/domain"
)

// cleanupInterval is how often expired verdicts are swept
const cleanupInterval = 10 * time.Minute

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	value      []byte
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL support
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	done  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup loop.
// Call Close to stop the loop.
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		done: make(chan struct{}),
	}

	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}

	// callers may keep the slice
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a copy of value with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		value:      stored,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}
	return !time.Now().After(item.expiration), nil
}

// Close stops the cleanup loop. The cache stays usable.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.removeExpired(time.Now())
		}
	}
}

func (c *MemoryCache) removeExpired(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
