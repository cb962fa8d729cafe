// Package cache provides a generic TTL-keyed in-memory store. The
// kernel uses it to remember the most recently observed value per key
// (see internal/monitor's tick watchdog) without growing an unbounded
// map of everything ever seen.
package cache

import (
	"sync"
	"time"
)

// CacheItem is one stored value plus its expiration time as a Unix nano
// timestamp, or zero for a value that never expires.
type CacheItem struct {
	Value      interface{}
	Expiration int64
}

// MemoryCache is a concurrency-safe map with per-key TTLs and a
// background sweep that evicts expired entries.
type MemoryCache struct {
	items sync.Map
	mu    sync.RWMutex
}

// NewMemoryCache starts a cache with its expiry sweep running in the
// background.
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{}
	go cache.cleanupExpired()
	return cache
}

// Set stores value under key with the given time-to-live. A zero ttl
// never expires.
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	expiration := time.Now().Add(ttl).UnixNano()
	if ttl == 0 {
		expiration = 0
	}

	c.items.Store(key, &CacheItem{
		Value:      value,
		Expiration: expiration,
	})
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	item, exists := c.items.Load(key)
	if !exists {
		return nil, false
	}

	cacheItem := item.(*CacheItem)
	if cacheItem.Expiration > 0 && time.Now().UnixNano() > cacheItem.Expiration {
		c.items.Delete(key)
		return nil, false
	}

	return cacheItem.Value, true
}

func (c *MemoryCache) Delete(key string) {
	c.items.Delete(key)
}

func (c *MemoryCache) Clear() {
	c.items.Range(func(key, value interface{}) bool {
		c.items.Delete(key)
		return true
	})
}

func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now().UnixNano()
		c.items.Range(func(key, value interface{}) bool {
			item := value.(*CacheItem)
			if item.Expiration > 0 && now > item.Expiration {
				c.items.Delete(key)
			}
			return true
		})
	}
}

func (c *MemoryCache) GetAll() map[string]interface{} {
	result := make(map[string]interface{})
	c.items.Range(func(key, value interface{}) bool {
		item := value.(*CacheItem)
		if item.Expiration == 0 || time.Now().UnixNano() <= item.Expiration {
			result[key.(string)] = item.Value
		}
		return true
	})
	return result
}
