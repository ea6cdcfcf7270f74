// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package coalesce deduplicates concurrent identical operations.

When many requests miss the cache for the same key at once, only one of them
should reach PostgreSQL or the external catalogue. The first caller becomes
the producer; everyone else arriving before the producer finishes waits for
its result instead of issuing a duplicate query.

Architecture:

  - Group: one registry of in-flight calls, keyed by string.
  - Producer isolation: the producer runs in its own goroutine, so a waiter
    cancelling its context never aborts work other waiters depend on.
  - Publish before deregister: results become visible to late arrivals before
    the key is released, so no caller can fall through the gap and trigger a
    second execution of a finished call.
*/
package coalesce

import (
	"context"
	"fmt"
	"sync"
)

// call is a single in-flight execution shared by all its waiters.
type call[V any] struct {
	done chan struct{}

	// Written once by the producer goroutine before done is closed.
	val        V
	err        error
	panicValue any
}

// Group coalesces concurrent calls that share a key.
//
// The zero value is not usable; construct with [NewGroup].
type Group[V any] struct {
	mu    sync.Mutex
	calls map[string]*call[V]
}

// NewGroup creates an empty coalescing group.
func NewGroup[V any]() *Group[V] {
	return &Group[V]{calls: make(map[string]*call[V])}
}

// Do executes fn for key, coalescing concurrent callers.
//
// The first caller for a key starts fn in a separate goroutine and becomes
// the producer. Until fn returns, every further Do with the same key blocks
// and then shares the producer's result. A caller whose ctx is cancelled
// unblocks with ctx.Err(), but fn keeps running for the remaining waiters.
//
// If fn panics, waiters receive a descriptive error and the panic is
// re-raised in the caller that started the execution.
func (g *Group[V]) Do(ctx context.Context, key string, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if c, found := g.calls[key]; found {
		g.mu.Unlock()
		return g.wait(ctx, c, false)
	}

	c := &call[V]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	go g.run(key, c, fn)

	return g.wait(ctx, c, true)
}

// IsPending reports whether an execution for key is currently in flight.
func (g *Group[V]) IsPending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, found := g.calls[key]
	return found
}

// Pending returns the number of keys currently in flight.
func (g *Group[V]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// Reset detaches every in-flight call. Running producers still complete and
// deliver to their existing waiters, but subsequent callers start fresh
// executions.
func (g *Group[V]) Reset() {
	g.mu.Lock()
	g.calls = make(map[string]*call[V])
	g.mu.Unlock()
}

// wait blocks until the call publishes or ctx is cancelled.
func (g *Group[V]) wait(ctx context.Context, c *call[V], producer bool) (V, error) {
	select {
	case <-c.done:
		if producer && c.panicValue != nil {
			panic(c.panicValue)
		}
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// run executes fn and publishes its outcome.
//
// Ordering matters: the result is published (done closed) strictly before the
// key is deregistered, so a caller that finds the call in the registry always
// observes a result.
func (g *Group[V]) run(key string, c *call[V], fn func() (V, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.panicValue = r
			c.err = fmt.Errorf("coalesce: producer for key %q panicked: %v", key, r)
		}

		close(c.done)

		g.mu.Lock()
		// Reset may have replaced the registry while we ran.
		if g.calls[key] == c {
			delete(g.calls, key)
		}
		g.mu.Unlock()
	}()

	c.val, c.err = fn()
}
