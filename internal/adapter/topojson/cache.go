package topojson

import (
	"context"
	"slices"
	"sync"

	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/observability"
	"golang.org/x/sync/singleflight"
)

// CachedSource wraps a BoundarySource with an in-memory LRU cache keyed by
// the boundary reference. Concurrent misses for the same reference share one fetch.
type CachedSource struct {
	inner   domain.BoundarySource
	cache   *lruCache
	group   singleflight.Group
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a boundary source.
func NewCachedSource(inner domain.BoundarySource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) RegionCodes(ctx context.Context, ref domain.BoundaryRef) ([]int64, error) {
	key := ref.URL + "|" + ref.Feature + "|" + ref.KeyProperty
	if codes, ok := c.cache.get(key); ok {
		c.metrics.BoundaryCache.WithLabelValues("hit").Inc()
		return slices.Clone(codes), nil
	}
	c.metrics.BoundaryCache.WithLabelValues("miss").Inc()

	// The shared fetch outlives any single caller; each caller only stops
	// waiting when its own context ends. The client timeout bounds the fetch.
	ch := c.group.DoChan(key, func() (any, error) {
		codes, err := c.inner.RegionCodes(context.WithoutCancel(ctx), ref)
		if err != nil {
			return nil, err
		}
		// Empty results are not cached so a half-published dataset can be retried.
		if len(codes) > 0 {
			c.cache.put(key, codes)
		}
		return codes, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]int64)), nil
	}
}

// lruCache is a simple thread-safe LRU cache of region code lists.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []int64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
