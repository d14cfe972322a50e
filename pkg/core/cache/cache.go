// ============================================================================
// koi - KoiLang command parser
// ============================================================================
//
// Package:     cache
// Description: Thread-safe in-memory TTL cache
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// entry is a cached item with expiration
type entry[V any] struct {
	value      V
	expiration time.Time
	added      time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// Cache is a thread-safe in-memory cache with TTL support. When full, the
// oldest entry is evicted.
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[string]*entry[V]
	maxItems int
	ttl      time.Duration

	hits   int64
	misses int64

	stop     chan struct{}
	stopOnce sync.Once
}

// Config holds cache configuration
type Config struct {
	MaxItems int
	TTL      time.Duration

	// CleanupInterval between sweeps of expired entries; zero disables
	CleanupInterval time.Duration
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxItems:        256,
		TTL:             5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// New creates a new cache. Close stops its cleanup goroutine.
func New[V any](cfg Config) *Cache[V] {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultConfig().MaxItems
	}

	c := &Cache[V]{
		items:    make(map[string]*entry[V]),
		maxItems: cfg.MaxItems,
		ttl:      cfg.TTL,
		stop:     make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go c.cleanupLoop(cfg.CleanupInterval)
	}
	return c
}

// Get retrieves a value from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok && e.expired(time.Now()) {
		delete(c.items, key)
		ok = false
	}
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return e.value, true
}

// Set stores a value with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	now := time.Now()
	e := &entry[V]{value: value, added: now}
	if c.ttl > 0 {
		e.expiration = now.Add(c.ttl)
	}
	c.items[key] = e
}

// GetOrSet returns the cached value or computes and stores it. Errors are
// not cached.
func (c *Cache[V]) GetOrSet(key string, fn func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := fn()
	if err != nil {
		return v, false, err
	}
	c.Set(key, v)
	return v, false, nil
}

// Delete removes a value from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Size returns the number of items in the cache
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns hit and miss counts and the hit rate in percent
func (c *Cache[V]) Stats() (hits, misses int64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hits = c.hits
	misses = c.misses
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// Close stops the cleanup goroutine
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// evictOldest removes the entry added first (must be called with lock held)
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time

	for key, e := range c.items {
		if oldestKey == "" || e.added.Before(oldest) {
			oldestKey = key
			oldest = e.added
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes all expired entries
func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
}

// Key hashes its parts into a cache key
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
