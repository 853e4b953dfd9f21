// Package ttlcache implements the fixed-capacity, per-entry-TTL store used
// by the dispatch facade's in-process matrix cache (§3 "TTLCache", §4.2). Unlike
// pkg/cache's generic byte-oriented Cache (LRU eviction, used for the
// distributed matrix cache), this cache is in-process, FIFO-evicting on
// overflow exactly as the reference dict-ordered eviction behaves, and
// provides an at-most-once-construction GetOrCompute via singleflight.
package ttlcache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a fixed-capacity key→value store with per-entry expiry and FIFO
// eviction on overflow (insertion order, not access order).
type Cache[V any] struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = oldest insertion
	group   singleflight.Group
}

type entry[V any] struct {
	key    string
	value  V
	expiry time.Time
}

// New creates a Cache bounded to maxSize entries. maxSize <= 0 means
// unbounded.
func New[V any](maxSize int) *Cache[V] {
	return &Cache[V]{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached value for key if present and not expired. An
// expired entry is opportunistically removed and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if time.Now().After(e.expiry) {
		c.removeLocked(el)
		return zero, false
	}
	return e.value, true
}

// Set inserts or replaces key's value with the given TTL. If inserting a new
// key would exceed maxSize, the oldest-inserted entry is evicted first
// (FIFO, not LRU).
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry[V]).value = value
		el.Value.(*entry[V]).expiry = time.Now().Add(ttl)
		c.order.MoveToBack(el)
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	e := &entry[V]{key: key, value: value, expiry: time.Now().Add(ttl)}
	el := c.order.PushBack(e)
	c.entries[key] = el
}

// Delete removes key unconditionally.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.removeLocked(el)
	}
}

// Len returns the current number of entries, including any not-yet-swept
// expired ones.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	e := el.Value.(*entry[V])
	delete(c.entries, e.key)
	c.order.Remove(el)
}

func (c *Cache[V]) evictOldestLocked() {
	front := c.order.Front()
	if front != nil {
		c.removeLocked(front)
	}
}

// Builder computes the value for a cache miss.
type Builder[V any] func(ctx context.Context) (V, error)

// GetOrCompute returns the cached value for key, or invokes builder exactly
// once across all concurrent callers on the same key (at-most-one
// construction) and caches the result under ttl before returning it to all
// waiters.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, builder Builder[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := builder(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})

	var zero V
	if err != nil {
		return zero, err
	}
	return result.(V), nil
}
