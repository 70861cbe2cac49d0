package data

import (
	"context"
	"os"
	"sync"
	"time"
)

type cacheEntry struct {
	table     *Table
	expiresAt time.Time
}

// CachedProvider memoises the tables fetched by another Provider for a
// fixed TTL. Expired entries are swept in the background until Close.
type CachedProvider struct {
	next Provider
	ttl  time.Duration

	mu    sync.RWMutex
	store map[string]*cacheEntry

	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewCachedProvider wraps next with a cache. A non-positive ttl defaults to one hour.
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &CachedProvider{
		next:  next,
		ttl:   ttl,
		store: make(map[string]*cacheEntry),
		stop:  make(chan struct{}),
		now:   time.Now,
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// CacheTTLFromEnv reports the cache TTL configured through ENABLE_NAV_CACHE
// and NAV_CACHE_TTL. Caching is never enabled when API_ENV=production.
func CacheTTLFromEnv() (time.Duration, bool) {
	if os.Getenv("ENABLE_NAV_CACHE") != "true" {
		return 0, false
	}
	if os.Getenv("API_ENV") == "production" {
		return 0, false
	}
	ttl := time.Hour
	if s := os.Getenv("NAV_CACHE_TTL"); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil {
			ttl = parsed
		}
	}
	return ttl, true
}

func (c *CachedProvider) Name() string { return c.next.Name() }

func (c *CachedProvider) Fetch(ctx context.Context, instrumentID string) (*Table, error) {
	key := c.next.Name() + ":" + instrumentID
	if t, ok := c.get(key); ok {
		return t, nil
	}
	t, err := c.next.Fetch(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	c.set(key, t)
	return t, nil
}

func (c *CachedProvider) get(key string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.table, true
}

func (c *CachedProvider) set(key string, t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = &cacheEntry{table: t, expiresAt: c.now().Add(c.ttl)}
}

// Len returns the number of live entries.
func (c *CachedProvider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := c.now()
	for _, e := range c.store {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}

// Clear removes all entries from the cache.
func (c *CachedProvider) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cacheEntry)
}

// Close stops the background sweep.
func (c *CachedProvider) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *CachedProvider) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *CachedProvider) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}
