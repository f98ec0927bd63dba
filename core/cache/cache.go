// Package cache provides a bounded, concurrency-safe LRU memo.
package cache

import (
	"container/list"
	"sync"
)

// Stats reports cache effectiveness. It is logged at debug level after a
// build.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
}

type item[K comparable, V any] struct {
	key K
	val V
}

// LRU keeps the most recently used values up to a fixed count. The zero
// value is not usable; call NewLRU.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	limit int // 0 means unbounded
	index map[K]*list.Element
	order *list.List // front is most recent
	stats Stats
}

// NewLRU returns a cache holding at most maxSize values. maxSize <= 0
// disables eviction.
func NewLRU[K comparable, V any](maxSize int) *LRU[K, V] {
	return &LRU[K, V]{
		limit: max(maxSize, 0),
		index: make(map[K]*list.Element),
		order: list.New(),
	}
}

// Get returns the value stored for key and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key)
}

// Put stores val for key, evicting the least recently used value when full.
func (c *LRU[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, val)
}

// GetOrLoad returns the cached value for key, computing and storing it with
// load on a miss. load runs outside the lock, so two goroutines missing on
// the same key may both call it; load must be deterministic.
func (c *LRU[K, V]) GetOrLoad(key K, load func(K) V) V {
	c.mu.Lock()
	if v, ok := c.lookup(key); ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	v := load(key)

	c.mu.Lock()
	c.store(key, v)
	c.mu.Unlock()
	return v
}

// Len returns the number of cached values.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	s.MaxSize = c.limit
	return s
}

func (c *LRU[K, V]) lookup(key K) (V, bool) {
	el, ok := c.index[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	c.order.MoveToFront(el)
	return el.Value.(*item[K, V]).val, true
}

func (c *LRU[K, V]) store(key K, val V) {
	if el, ok := c.index[key]; ok {
		el.Value.(*item[K, V]).val = val
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(&item[K, V]{key: key, val: val})
	if c.limit == 0 || c.order.Len() <= c.limit {
		return
	}
	oldest := c.order.Back()
	c.order.Remove(oldest)
	delete(c.index, oldest.Value.(*item[K, V]).key)
	c.stats.Evictions++
}
