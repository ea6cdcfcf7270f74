// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
)

// clock is a manually advanced time source for window tests.
type clock struct {
	current time.Time
}

func newClock() *clock {
	return &clock{current: time.Unix(1_700_000_000, 0)}
}

func (c *clock) now() time.Time {
	return c.current
}

func (c *clock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

/*
TestWindow_StrictBound verifies the window invariant directly: polling every
2ms for a full second admits exactly the limit, never limit plus refill.
*/
func TestWindow_StrictBound(t *testing.T) {
	tick := newClock()
	w := newWindow(5, time.Second)
	w.now = tick.now

	admitted := 0
	for i := 0; i < 500; i++ {
		if w.allow() {
			admitted++
		}
		tick.advance(2 * time.Millisecond)
	}

	assert.Equal(t, 5, admitted)
}

/*
TestWindow_SlidesOpen verifies that capacity returns one slot at a time as
old admissions slide past the horizon, rather than all at once.
*/
func TestWindow_SlidesOpen(t *testing.T) {
	tick := newClock()
	w := newWindow(3, time.Second)
	w.now = tick.now

	require.True(t, w.allow())
	tick.advance(400 * time.Millisecond)
	require.True(t, w.allow())
	require.True(t, w.allow())
	require.False(t, w.allow())

	// 1.1s after the first admission only that slot has expired.
	tick.advance(700 * time.Millisecond)
	assert.True(t, w.allow())
	assert.False(t, w.allow())
}

/*
TestGate_GlobalWindow verifies that the shared window admits its limit and
then rejects immediately instead of queueing.
*/
func TestGate_GlobalWindow(t *testing.T) {
	g := newGate()

	for i := 0; i < globalRequestsPerSecond; i++ {
		require.NoError(t, g.allow(""), "request %d should pass", i+1)
	}

	err := g.allow("")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeRateLimited, apperr.As(err).Code)
}

/*
TestGate_LoginWindow verifies the hourly login bound: thirty logins spread
across the hour never free capacity early, and the thirty-first waits for the
first admission to leave the window.
*/
func TestGate_LoginWindow(t *testing.T) {
	tick := newClock()
	g := newGate()
	g.global = newWindow(1_000_000, time.Second)
	g.overlays[endpointLogin].now = tick.now

	// 30 logins, one per minute.
	for i := 0; i < 30; i++ {
		require.NoError(t, g.allow(endpointLogin), "login %d should pass", i+1)
		tick.advance(time.Minute)
	}

	// 30 minutes into the hour the window is still full.
	err := g.allow(endpointLogin)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeRateLimited, apperr.As(err).Code)

	// Once the first login leaves the hour, exactly one slot opens.
	tick.advance(30*time.Minute + 30*time.Second)
	assert.NoError(t, g.allow(endpointLogin))
	assert.Error(t, g.allow(endpointLogin))
}

/*
TestGate_OverlayBeforeGlobal verifies that an exhausted overlay rejects a
request even when the global window still has capacity.
*/
func TestGate_OverlayBeforeGlobal(t *testing.T) {
	g := &gate{
		global: newWindow(1_000_000, time.Second),
		overlays: map[string]*window{
			endpointLogin: newWindow(2, time.Hour),
		},
	}

	require.NoError(t, g.allow(endpointLogin))
	require.NoError(t, g.allow(endpointLogin))

	err := g.allow(endpointLogin)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeRateLimited, apperr.As(err).Code)

	// Endpoints without an overlay are unaffected.
	assert.NoError(t, g.allow(""))
}

/*
TestOverlayKey verifies the path-to-overlay mapping.
*/
func TestOverlayKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/auth/login", endpointLogin},
		{"/manga/random", endpointRandom},
		{"/manga", ""},
		{"/manga/b9797c5b", ""},
		{"/manga/tag", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, overlayKey(tt.path), "path %s", tt.path)
	}
}
