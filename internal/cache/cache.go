// Package cache is the client's entity cache: a keyed store of server state
// with fetch de-duplication and explicit invalidation. Values are whatever
// the fetch function returned and must be treated as read-only.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the current value for a key from the server.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits          int64
	Misses        int64
	Fetches       int64
	Invalidations int64
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	// gens counts invalidations per key. A fetch only stores its result if
	// the generation it started with is still current.
	gens map[string]uint64

	group  singleflight.Group
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger

	hits, misses, fetches, invalidations atomic.Int64
}

type Option func(*Cache)

// WithMaxAge expires entries after d even without an invalidation.
func WithMaxAge(d time.Duration) Option { return func(c *Cache) { c.maxAge = d } }

func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.logger = l } }

func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the fresh value under key or fetches it. Concurrent reads of
// a key share one fetch, unless the key was invalidated in between.
func (c *Cache) Read(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.fresh(e) {
		c.mu.Unlock()
		c.hits.Add(1)
		return e.value, nil
	}
	gen, seen := c.gens[key]
	if !seen {
		// registered so that a prefix invalidation also covers the first fetch
		c.gens[key] = 0
	}
	c.mu.Unlock()
	c.misses.Add(1)

	flight := key + "#" + strconv.FormatUint(gen, 10)
	// The fetch is shared, so it must outlive the caller that started it.
	// Each caller still stops waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		c.fetches.Add(1)
		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = entry{value: v, fetchedAt: c.now()}
		} else {
			c.logger.Debug("[cache][stale-fetch]", "key", key)
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// Get is the typed form of Read.
func Get[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) { return fetch(ctx) })
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return t, nil
}

// Invalidate marks keys stale. The next read of each key fetches again.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		c.bumpLocked(k)
	}
	c.mu.Unlock()
	c.logger.Debug("[cache][invalidate]", "keys", keys)
}

// InvalidatePrefix marks every key starting with prefix stale, including
// keys whose first fetch is still in flight.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.gens {
		if strings.HasPrefix(k, prefix) {
			c.bumpLocked(k)
		}
	}
	c.mu.Unlock()
	c.logger.Debug("[cache][invalidate]", "prefix", prefix)
}

func (c *Cache) bumpLocked(k string) {
	if _, ok := c.entries[k]; ok {
		delete(c.entries, k)
		c.invalidations.Add(1)
	}
	c.gens[k]++
}

// Peek returns the cached value without fetching, and whether it is fresh.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Fetches:       c.fetches.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// LogStats writes the counters at debug level.
func (c *Cache) LogStats() {
	s := c.Stats()
	c.logger.Debug("[cache][stats]", "hits", s.Hits, "misses", s.Misses, "fetches", s.Fetches, "invalidations", s.Invalidations)
}

func (c *Cache) fresh(e entry) bool {
	return c.maxAge <= 0 || c.now().Sub(e.fetchedAt) < c.maxAge
}
