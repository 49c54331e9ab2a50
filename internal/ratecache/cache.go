// Package ratecache remembers provider quotes for a bounded time so repeated
// checkout visits do not re-quote the same lane.
package ratecache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitrakirim/fulfillment/pkg/courier"
)

// DefaultTTL is how long a stored rate is trusted.
const DefaultTTL = 24 * time.Hour

// Cache is a keyed TTL store of provider quotes. A key is the exact
// (origin, destination, weight-in-grams) tuple; weight is integral so no
// float comparison is involved. Rows are appended per key and filtered by
// expiry on read; expired rows for a key are pruned on the next write.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.RWMutex
	rows map[string][]courier.CachedRate
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:  ttl,
		now:  time.Now,
		rows: make(map[string][]courier.CachedRate),
	}
}

// NewWithClock creates a cache with an injected clock for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	c := New(ttl)
	c.now = now
	return c
}

// Lookup returns all non-expired rows for the exact tuple, ordered by price
// ascending. Expired rows are excluded, not deleted.
func (c *Cache) Lookup(origin, destination string, weightGrams int) []courier.CachedRate {
	key := cacheKey(origin, destination, weightGrams)
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []courier.CachedRate
	for _, row := range c.rows[key] {
		if now.Before(row.ExpiresAt) {
			result = append(result, row)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PriceMinorUnits < result[j].PriceMinorUnits
	})
	return result
}

// Store appends a rate row with the cache TTL from now. Expired rows under
// the same key are dropped first so the map cannot grow without bound.
func (c *Cache) Store(rate courier.CachedRate) {
	key := cacheKey(rate.OriginCity, rate.DestinationCity, rate.WeightGrams)
	now := c.now()
	rate.ExpiresAt = now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.rows[key][:0]
	for _, row := range c.rows[key] {
		if now.Before(row.ExpiresAt) {
			kept = append(kept, row)
		}
	}
	c.rows[key] = append(kept, rate)
}

// Len returns the number of keys currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}

func cacheKey(origin, destination string, weightGrams int) string {
	return fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(origin)),
		strings.ToLower(strings.TrimSpace(destination)),
		weightGrams,
	)
}
