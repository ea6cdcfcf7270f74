// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/manhwaru/internal/cache"
)

/*
TestTTLCache_SetGet verifies the basic store-then-load round trip.
*/
func TestTTLCache_SetGet(t *testing.T) {
	c := cache.NewTTL("entity", time.Minute, 10)
	defer c.Stop()

	c.Set("manhwa:entity:1", "solo-leveling")

	value, found := c.Get("manhwa:entity:1")
	require.True(t, found)
	assert.Equal(t, "solo-leveling", value)

	_, found = c.Get("manhwa:entity:2")
	assert.False(t, found)
}

/*
TestTTLCache_Expiry verifies that entries become misses once their TTL passes.
*/
func TestTTLCache_Expiry(t *testing.T) {
	c := cache.NewTTL("search", 30*time.Millisecond, 10)
	defer c.Stop()

	c.Set("search:q=tower", "page-1")

	_, found := c.Get("search:q=tower")
	require.True(t, found)

	time.Sleep(60 * time.Millisecond)

	_, found = c.Get("search:q=tower")
	assert.False(t, found)
}

/*
TestTTLCache_Overwrite verifies that re-setting a key replaces the value and
refreshes its deadline.
*/
func TestTTLCache_Overwrite(t *testing.T) {
	c := cache.NewTTL("entity", time.Minute, 10)
	defer c.Stop()

	c.Set("manhwa:entity:7", "old")
	c.Set("manhwa:entity:7", "new")

	value, found := c.Get("manhwa:entity:7")
	require.True(t, found)
	assert.Equal(t, "new", value)
	assert.Equal(t, 1, c.Len())
}

/*
TestTTLCache_DeleteMatching verifies substring invalidation across keys.
*/
func TestTTLCache_DeleteMatching(t *testing.T) {
	tests := []struct {
		name        string
		substr      string
		wantRemoved int
		wantLeft    int
	}{
		{"match_prefix", "search:", 3, 1},
		{"match_middle", "g=action", 2, 2},
		{"match_none", "nothing", 0, 4},
		{"match_all", ":", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cache.NewTTL("search", time.Minute, 10)
			defer c.Stop()

			c.Set("search:q=a|g=action", 1)
			c.Set("search:q=b|g=action", 2)
			c.Set("search:q=b|g=drama", 3)
			c.Set("manhwa:entity:9", 4)

			removed := c.DeleteMatching(tt.substr)
			assert.Equal(t, tt.wantRemoved, removed)
			assert.Equal(t, tt.wantLeft, c.Len())
		})
	}
}

/*
TestTTLCache_CapacityEviction verifies that a full tier evicts the entry
closest to expiry, which under a uniform TTL is the oldest write.
*/
func TestTTLCache_CapacityEviction(t *testing.T) {
	c := cache.NewTTL("entity", time.Minute, 2)
	defer c.Stop()

	c.Set("manhwa:entity:1", "first")
	time.Sleep(5 * time.Millisecond)
	c.Set("manhwa:entity:2", "second")
	time.Sleep(5 * time.Millisecond)
	c.Set("manhwa:entity:3", "third")

	assert.Equal(t, 2, c.Len())

	_, found := c.Get("manhwa:entity:1")
	assert.False(t, found, "oldest entry should have been evicted")

	_, found = c.Get("manhwa:entity:2")
	assert.True(t, found)
	_, found = c.Get("manhwa:entity:3")
	assert.True(t, found)
}

/*
TestTTLCache_Stats verifies hit and miss accounting.
*/
func TestTTLCache_Stats(t *testing.T) {
	c := cache.NewTTL("entity", time.Minute, 10)
	defer c.Stop()

	c.Set("manhwa:entity:1", "x")

	c.Get("manhwa:entity:1") // hit
	c.Get("manhwa:entity:1") // hit
	c.Get("manhwa:entity:2") // miss

	stats := c.Stats()
	assert.Equal(t, 1, stats.Keys)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)
}

/*
TestTTLCache_Clear verifies that Clear empties the tier but keeps it usable.
*/
func TestTTLCache_Clear(t *testing.T) {
	c := cache.NewTTL("tag", time.Minute, 10)
	defer c.Stop()

	c.Set("genres:all", []string{"action"})
	c.Clear()

	assert.Equal(t, 0, c.Len())

	c.Set("genres:all", []string{"drama"})
	_, found := c.Get("genres:all")
	assert.True(t, found)
}
