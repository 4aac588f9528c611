// Package cache stores the last computed cost breakdown per recipe for a
// fixed TTL. Explicit invalidation always wins over an unexpired entry.
//
// Expiry is checked on read against the cache's own clock, so a read past
// the TTL behaves as a miss and removes the entry. The go-cache janitor
// purges entries nobody reads, and CleanupExpired sweeps on demand.
package cache

import (
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// DefaultTTL is how long a breakdown stays valid after it is written.
const DefaultTTL = 24 * time.Hour

// Option configures the cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock sets the clock used for write stamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithJanitorInterval sets how often the background janitor purges expired
// entries. Zero disables it.
func WithJanitorInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.janitor = d
	}
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Count        int   `json:"count"`
	ExpiredCount int   `json:"expired_count"`
	StaleCount   int   `json:"stale_count"`
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
}

type entry struct {
	breakdown *domain.CostBreakdown
	writtenAt time.Time
	stale     bool
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	store   *gocache.Cache
	ttl     time.Duration
	janitor time.Duration
	now     func() time.Time
	log     *logger.Logger
	hits    int64
	misses  int64
}

// New creates an empty cache.
func New(log *logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		ttl:     DefaultTTL,
		janitor: time.Hour,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = gocache.New(c.ttl, c.janitor)
	return c
}

// Get returns the cached breakdown for a recipe. The returned copy carries
// Stale=true when the entry was marked stale but has not expired yet.
func (c *Cache) Get(recipeID string) (*domain.CostBreakdown, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.load(recipeID)
	if !ok {
		c.misses++
		return nil, false
	}
	if c.expired(e) {
		c.store.Delete(recipeID)
		c.misses++
		c.log.Debug("cache: %s expired on read", recipeID)
		return nil, false
	}

	c.hits++
	out := e.breakdown.Clone()
	out.Stale = e.stale
	return out, true
}

// Put stores a breakdown, replacing any previous entry and clearing its
// stale mark.
func (c *Cache) Put(recipeID string, b *domain.CostBreakdown) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := b.Clone()
	stored.Stale = false
	c.save(recipeID, entry{breakdown: stored, writtenAt: c.now()})
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(recipeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(recipeID)
}

// InvalidateMany removes several entries.
func (c *Cache) InvalidateMany(recipeIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range recipeIDs {
		c.store.Delete(id)
	}
	if len(recipeIDs) > 0 {
		c.log.Debug("cache: invalidated %d entries", len(recipeIDs))
	}
}

// InvalidateByIngredient drops every recipe affected by an ingredient change.
func (c *Cache) InvalidateByIngredient(ingredientID string, affectedRecipeIDs []string) {
	c.log.Debug("cache: ingredient %s touches %d recipes", ingredientID, len(affectedRecipeIDs))
	c.InvalidateMany(affectedRecipeIDs)
}

// MarkStale flags an entry for recomputation without dropping it. It
// reports whether an entry existed.
func (c *Cache) MarkStale(recipeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.load(recipeID)
	if !ok || c.expired(e) {
		return false
	}
	e.stale = true
	c.save(recipeID, e)
	return true
}

// StaleIDs lists unexpired entries marked stale, sorted.
func (c *Cache) StaleIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for id, item := range c.store.Items() {
		e := item.Object.(entry)
		if e.stale && !c.expired(e) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// CleanupExpired removes every expired entry and returns how many it
// removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.store.ItemCount()
	for id, item := range c.store.Items() {
		if c.expired(item.Object.(entry)) {
			c.store.Delete(id)
		}
	}
	// Items already past the store's own deadline are hidden from Items.
	c.store.DeleteExpired()

	removed := before - c.store.ItemCount()
	if removed > 0 {
		c.log.Info("cache: cleaned %d expired entries", removed)
	}
	return removed
}

// Stats reports entry counts, including entries that expired but were not
// yet swept.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.store.Items()
	s := Stats{
		Count:        c.store.ItemCount(),
		ExpiredCount: c.store.ItemCount() - len(items),
		Hits:         c.hits,
		Misses:       c.misses,
	}
	for _, item := range items {
		e := item.Object.(entry)
		if c.expired(e) {
			s.ExpiredCount++
		} else if e.stale {
			s.StaleCount++
		}
	}
	return s
}

// Clear drops every entry and resets counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Flush()
	c.hits, c.misses = 0, 0
}

func (c *Cache) load(recipeID string) (entry, bool) {
	v, ok := c.store.Get(recipeID)
	if !ok {
		return entry{}, false
	}
	return v.(entry), true
}

// save keeps the janitor deadline aligned with the entry's own write time.
func (c *Cache) save(recipeID string, e entry) {
	remaining := c.ttl - c.now().Sub(e.writtenAt)
	if remaining <= 0 {
		remaining = time.Nanosecond
	}
	c.store.Set(recipeID, e, remaining)
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(e.writtenAt) >= c.ttl
}
