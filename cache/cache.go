// Package cache memoizes nearest-neighbour answers per query text.
package cache

import (
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vpatel95/text-vector/model"
)

// Searcher answers nearest-neighbour queries. *model.WordModel implements it.
type Searcher interface {
	Nearest(q model.Vector, k int, minDistance float32) []model.Neighbor[string]
}

// Options configures a Cache.
type Options struct {
	Capacity    int     // max memoized queries before LRU eviction (default 1024)
	Neighbors   int     // results per query (default 30)
	MinDistance float32 // similarity floor in [0, 1) (default 0)
}

// DefaultOptions returns production-ready defaults.
func DefaultOptions() Options {
	return Options{Capacity: 1024, Neighbors: 30}
}

// Stats is a point-in-time snapshot of cache metrics.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Evictions uint64
	HitRate   float64
}

// Cache is a thread-safe query cache in front of a Searcher.
// Queries are keyed by their exact text.
type Cache struct {
	enc       model.Encoder
	src       Searcher
	lru       *lru.Cache[string, []model.Neighbor[string]]
	neighbors int
	floor     float32

	mu        sync.Mutex
	hits      uint64
	misses    uint64
	sets      uint64
	evictions uint64
}

// New creates a Cache that encodes queries with enc and searches src.
// Panics if Capacity or Neighbors is not positive or MinDistance is outside [0, 1).
func New(enc model.Encoder, src Searcher, opts Options) *Cache {
	if opts.Capacity <= 0 {
		panic("cache: Options.Capacity must be positive")
	}
	if opts.Neighbors <= 0 {
		panic("cache: Options.Neighbors must be positive")
	}
	if opts.MinDistance < 0 || opts.MinDistance >= 1 {
		panic("cache: Options.MinDistance must be in [0, 1)")
	}
	l, err := lru.New[string, []model.Neighbor[string]](opts.Capacity)
	if err != nil {
		panic("cache: " + err.Error())
	}
	return &Cache{
		enc:       enc,
		src:       src,
		lru:       l,
		neighbors: opts.Neighbors,
		floor:     opts.MinDistance,
	}
}

// Nearest returns the neighbours of query, computing and memoizing them on a
// miss. The returned slice is a copy. Encoding errors are not cached.
func (c *Cache) Nearest(query string) ([]model.Neighbor[string], error) {
	if res, ok := c.lru.Get(query); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return slices.Clone(res), nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	q, err := c.enc.Encode(query)
	if err != nil {
		return nil, err
	}
	res := c.src.Nearest(q, c.neighbors, c.floor)
	evicted := c.lru.Add(query, res)

	c.mu.Lock()
	c.sets++
	if evicted {
		c.evictions++
	}
	c.mu.Unlock()
	return slices.Clone(res), nil
}

// Delete drops the memoized answer for query.
// Returns true if an entry was found and removed.
func (c *Cache) Delete(query string) bool { return c.lru.Remove(query) }

// Purge drops every memoized answer, e.g. after the underlying model changed.
func (c *Cache) Purge() { c.lru.Purge() }

// Len returns the current number of memoized queries.
func (c *Cache) Len() int { return c.lru.Len() }

// Stats returns a point-in-time snapshot of cache metrics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Entries:   c.lru.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
