package cache

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type CacheConfig struct {
	// EntrySize is the max number of entries held at once
	EntrySize int
}

func NewCacheConfig() CacheConfig {
	return CacheConfig{
		EntrySize: 1000,
	}
}

// Cache is a bounded mapping that evicts the least recently used entry when a
// new key is inserted at capacity. It is not safe for concurrent use; the
// owner serializes access.
type Cache[K comparable, V any] struct {
	cfg       CacheConfig
	entries   *simplelru.LRU[K, V]
	evictions uint64
	onEvict   func(key K, value V)
}

// NewCache creates a cache. onEvict may be nil; it only runs for capacity
// evictions, not for Remove.
func NewCache[K comparable, V any](cfg CacheConfig, onEvict func(key K, value V)) (*Cache[K, V], error) {
	if cfg.EntrySize <= 0 {
		return nil, ErrInvalidEntrySize
	}
	c := &Cache[K, V]{
		cfg:     cfg,
		onEvict: onEvict,
	}
	entries, err := simplelru.NewLRU[K, V](cfg.EntrySize, nil)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

// GetOrCreate returns the entry for key and marks it as most recently used.
// If the key is absent, the value built by create is inserted, evicting the
// least recently used entry first when the cache is full. loaded reports
// whether the entry already existed.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) (value V, loaded bool) {
	if v, ok := c.entries.Get(key); ok {
		return v, true
	}
	if c.entries.Len() >= c.cfg.EntrySize {
		if oldKey, oldValue, ok := c.entries.RemoveOldest(); ok {
			c.evictions++
			if c.onEvict != nil {
				c.onEvict(oldKey, oldValue)
			}
		}
	}
	v := create()
	c.entries.Add(key, v)
	return v, false
}

// Peek returns the entry for key without touching its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	return c.entries.Peek(key)
}

// Range calls fn for every resident entry, least recently used first, until
// fn returns false. Recency is left untouched.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	for _, key := range c.entries.Keys() {
		value, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		if !fn(key, value) {
			return
		}
	}
}

func (c *Cache[K, V]) Remove(key K) bool {
	return c.entries.Remove(key)
}

func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

func (c *Cache[K, V]) Cap() int {
	return c.cfg.EntrySize
}

// Evictions is the number of entries dropped to make room for new keys.
func (c *Cache[K, V]) Evictions() uint64 {
	return c.evictions
}
