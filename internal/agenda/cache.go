package agenda

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"chorecal/internal/dates"
	"chorecal/internal/recurrence"
)

// CacheConfig holds the cache limits.
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

var DefaultCacheConfig = CacheConfig{
	TTL:        15 * time.Minute,
	MaxEntries: 1000,
}

type cacheEntry struct {
	dates      []dates.Date
	expiresAt  time.Time
	accessedAt time.Time
}

// Cache memoizes expansions by rule and range. Entries expire after TTL;
// once MaxEntries is exceeded the least recently used are dropped.
type Cache struct {
	mu         sync.Mutex
	entries    map[uint64]*cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits, misses int
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// NewCache returns an empty cache. Zero fields in cfg take the defaults.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheConfig.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	return &Cache{
		entries:    make(map[uint64]*cacheEntry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// cacheKey hashes the encoded rule and the range.
func cacheKey(rule recurrence.Rule, start, end dates.Date) uint64 {
	s := recurrence.Encode(rule)
	h := xxhash.New()
	for _, part := range []string{s.Type, s.Date, s.StartDate, s.EndDate} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	for _, d := range s.DaysOfWeek {
		_, _ = h.WriteString(strconv.Itoa(d))
		_, _ = h.Write([]byte{','})
	}
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(strconv.Itoa(s.DayOfMonth))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(start.String())
	_, _ = h.WriteString(end.String())
	return h.Sum64()
}

// Occurrences returns recurrence.Occurrences(rule, start, end), from the
// cache when possible. The returned slice must not be modified.
func (c *Cache) Occurrences(rule recurrence.Rule, start, end dates.Date) []dates.Date {
	key := cacheKey(rule, start, end)
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if now.Before(e.expiresAt) {
			e.accessedAt = now
			c.hits++
			c.mu.Unlock()
			return e.dates
		}
		delete(c.entries, key)
	}
	c.misses++
	c.mu.Unlock()

	result := recurrence.Occurrences(rule, start, end)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{dates: result, expiresAt: now.Add(c.ttl), accessedAt: now}
	if len(c.entries) > c.maxEntries {
		c.cleanup(now)
	}
	return result
}

// cleanup must be called with mu held.
func (c *Cache) cleanup(now time.Time) {
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        uint64
		accessedAt time.Time
	}
	list := make([]keyAccess, 0, len(c.entries))
	for key, e := range c.entries {
		list = append(list, keyAccess{key: key, accessedAt: e.accessedAt})
	}
	slices.SortFunc(list, func(a, b keyAccess) int { return a.accessedAt.Compare(b.accessedAt) })

	for _, ka := range list[:len(c.entries)-c.maxEntries] {
		delete(c.entries, ka.key)
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[uint64]*cacheEntry)
	c.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
