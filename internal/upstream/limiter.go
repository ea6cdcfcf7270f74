// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upstream

import (
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
)

// # Rate Gate

const (
	// globalRequestsPerSecond is the upstream-wide budget shared by every
	// endpoint.
	globalRequestsPerSecond = 5

	// cooldownSeconds is the retry hint advertised to callers when a
	// limiter rejects a request.
	cooldownSeconds = 60
)

// Endpoint keys carrying a dedicated overlay limiter.
const (
	endpointLogin  = "login"
	endpointRandom = "random"
)

// window admits at most limit requests within any span-length interval. A
// token bucket cannot give that guarantee (burst plus refill overshoots the
// bound right after idle), so admissions are counted against their exact
// timestamps instead.
type window struct {
	mu     sync.Mutex
	span   time.Duration
	limit  int
	admits []time.Time

	// now is replaceable in tests.
	now func() time.Time
}

func newWindow(limit int, span time.Duration) *window {
	return &window{span: span, limit: limit, now: time.Now}
}

// allow consumes one slot, pruning admissions that have slid out of the
// window first. Consumption is atomic, so concurrent callers never overshoot.
func (w *window) allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	horizon := now.Add(-w.span)

	kept := w.admits[:0]
	for _, admitted := range w.admits {
		if admitted.After(horizon) {
			kept = append(kept, admitted)
		}
	}
	w.admits = kept

	if len(w.admits) >= w.limit {
		return false
	}
	w.admits = append(w.admits, now)
	return true
}

// gate enforces the upstream rate windows. Overlay windows are consulted
// before the global one, and a rejected request fails immediately rather than
// queueing behind the window.
type gate struct {
	global   *window
	overlays map[string]*window
}

func newGate() *gate {
	return &gate{
		global: newWindow(globalRequestsPerSecond, time.Second),

		// Upstream windows: login 30 per hour, random 60 per minute.
		overlays: map[string]*window{
			endpointLogin:  newWindow(30, time.Hour),
			endpointRandom: newWindow(60, time.Minute),
		},
	}
}

// allow consumes one slot for the endpoint.
func (g *gate) allow(endpoint string) error {
	if overlay, ok := g.overlays[endpoint]; ok && !overlay.allow() {
		return apperr.RateLimited(cooldownSeconds)
	}
	if !g.global.allow() {
		return apperr.RateLimited(cooldownSeconds)
	}
	return nil
}

// overlayKey resolves the overlay window for a request path. Paths without
// an overlay only consume from the global window.
func overlayKey(path string) string {
	switch {
	case strings.HasPrefix(path, "/auth/login"):
		return endpointLogin
	case strings.HasSuffix(path, "/random"):
		return endpointRandom
	default:
		return ""
	}
}
