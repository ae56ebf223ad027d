// Package cache is a small TTL read-through cache the handler layer puts in
// front of the category list and the monthly transaction query. The core
// stays cache-free; every mutating storage call is followed by an explicit
// Invalidate here.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultTTL bounds how stale a cached read may get.
const DefaultTTL = 5 * time.Minute

// CategoriesKey caches the full category list.
const CategoriesKey = "categories"

// MonthKey caches one month's transaction query result.
func MonthKey(year, month int) string {
	return fmt.Sprintf("month:%04d-%02d", year, month)
}

// Cache wraps ristretto with a fixed TTL and whole-cache invalidation. The
// entry count is tiny (one list plus a handful of month windows), so cost
// accounting is a flat 1 per entry.
type Cache struct {
	c   *ristretto.Cache[string, any]
	ttl time.Duration
}

// New creates a cache with the given TTL; pass 0 for DefaultTTL.
func New(ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 1000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &Cache{c: c, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (any, bool) {
	return c.c.Get(key)
}

func (c *Cache) Set(key string, value any) {
	c.c.SetWithTTL(key, value, 1, c.ttl)
	// Ristretto admits asynchronously; Wait makes the entry visible to the
	// next read, which the handlers rely on right after a fetch.
	c.c.Wait()
}

// Invalidate drops everything. Called after any write that could change the
// category list or a month's transactions.
func (c *Cache) Invalidate() {
	c.c.Clear()
}

func (c *Cache) Close() {
	c.c.Close()
}
