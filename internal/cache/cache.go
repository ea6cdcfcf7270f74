// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides the in-process caching layer for catalogue reads.

It shields PostgreSQL and the external catalogue API from repeated identical
requests. Entries live in tiered TTL caches, each tier tuned to how quickly
its data goes stale.

Core Responsibilities:

  - Expiry: Every entry carries a deadline; readers never see stale data.
  - Bounded Memory: Each tier holds at most a fixed number of keys and evicts
    the entry closest to expiry when full.
  - Invisibility: Cache failures (including the optional Redis mirror) degrade
    to misses. Callers never receive an error from this package.

The cache is an optimisation, never a source of truth.
*/
package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Sweep cadence bounds for the background janitor.
const (
	minSweepInterval = 1 * time.Second
	maxSweepInterval = 1 * time.Minute
)

// entry is a single cached value with its expiry deadline.
type entry struct {
	value     any
	expiresAt time.Time
}

// TTLCache is a capacity-bounded map with per-entry expiry.
//
// # Concurrency
//
// All methods are safe for concurrent use. Reads take a shared lock; writes
// and evictions take an exclusive lock.
type TTLCache struct {
	name    string
	ttl     time.Duration
	maxKeys int

	mu      sync.RWMutex
	entries map[string]entry

	hits   atomic.Int64
	misses atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

// Stats is a point-in-time snapshot of one cache tier.
type Stats struct {
	Keys    int     `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// NewTTL creates a cache tier and starts its background janitor.
//
// The janitor sweeps expired entries at a tenth of the TTL, clamped between
// one second and one minute. Call [TTLCache.Stop] to release it.
func NewTTL(name string, ttl time.Duration, maxKeys int) *TTLCache {
	c := &TTLCache{
		name:    name,
		ttl:     ttl,
		maxKeys: maxKeys,
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}

	go c.janitor()
	return c
}

// Get returns the value stored under key, or (nil, false) on a miss.
// An expired entry counts as a miss and is removed.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	item, found := c.entries[key]
	c.mu.RUnlock()

	if !found {
		c.misses.Add(1)
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: another goroutine may have replaced
		// the entry since the read lock was released.
		if current, still := c.entries[key]; still && time.Now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return item.value, true
}

// Set stores value under key with the tier's TTL.
//
// When the tier is full and key is not already present, the entry closest to
// expiry is evicted to make room. With a uniform TTL that is the oldest write.
func (c *TTLCache) Set(key string, value any) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxKeys {
		c.evictSoonest()
	}

	c.entries[key] = entry{value: value, expiresAt: now.Add(c.ttl)}
}

// Delete removes a single key. Removing an absent key is a no-op.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// DeleteMatching removes every entry whose key contains substr and returns
// the number of removed entries.
func (c *TTLCache) DeleteMatching(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, substr) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes every entry in the tier.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of entries currently stored, including entries that
// have expired but not yet been swept.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the tier's counters.
func (c *TTLCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}

	return Stats{
		Keys:    c.Len(),
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
	}
}

// Stop terminates the background janitor. The cache remains usable, but
// expired entries are then only removed lazily on Get.
func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// evictSoonest removes the entry with the earliest expiry deadline.
// Caller must hold the write lock.
func (c *TTLCache) evictSoonest() {
	var (
		victim   string
		deadline time.Time
		first    = true
	)

	for key, item := range c.entries {
		if first || item.expiresAt.Before(deadline) {
			victim = key
			deadline = item.expiresAt
			first = false
		}
	}

	if !first {
		delete(c.entries, victim)
	}
}

// janitor periodically sweeps expired entries until Stop is called.
func (c *TTLCache) janitor() {
	interval := c.ttl / 10
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, item := range c.entries {
				if now.After(item.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
