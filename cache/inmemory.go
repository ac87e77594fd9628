package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache: closed")

// inMemoryCacheItem represents a cache item with expiration.
type inMemoryCacheItem struct {
	value      []byte
	expiration time.Time
}

// isExpired checks if the item has expired.
func (i *inMemoryCacheItem) isExpired(now time.Time) bool {
	if i.expiration.IsZero() {
		return false
	}
	return now.After(i.expiration)
}

// InMemoryCache is a thread-safe in-memory cache. Values are copied on Set
// and Get, callers may modify what they pass in or get back. Expired items are dropped
// lazily when they are read, so the cache runs no background goroutine.
type InMemoryCache struct {
	items  sync.Map // map[string]*inMemoryCacheItem
	closed atomic.Bool
	now    func() time.Time
}

// NewInMemoryCache creates a new in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{now: time.Now}
}

func (c *InMemoryCache) load(key string) (*inMemoryCacheItem, bool) {
	value, ok := c.items.Load(key)
	if !ok {
		return nil, false
	}

	item, ok := value.(*inMemoryCacheItem)
	if !ok || item.isExpired(c.now()) {
		c.items.CompareAndDelete(key, value)
		return nil, false
	}
	return item, true
}

// Get retrieves an item from the cache.
func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	item, ok := c.load(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(item.value), true, nil
}

// Set sets an item in the cache with the specified TTL.
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	item := &inMemoryCacheItem{
		value: bytes.Clone(value),
	}

	if ttl > 0 {
		item.expiration = c.now().Add(ttl)
	}

	c.items.Store(key, item)
	return nil
}

// Delete removes an item from the cache.
func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Exists checks if a key exists in the cache.
func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	_, ok := c.load(key)
	return ok, nil
}

// Flush clears all items from the cache.
func (c *InMemoryCache) Flush(_ context.Context) error {
	c.items.Clear()
	return nil
}

// Close drops all items. Later reads and writes fail with ErrClosed.
func (c *InMemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.items.Clear()
	return nil
}
