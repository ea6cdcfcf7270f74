// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/manhwaru/internal/core/manhwa"
)

// fakeCatalogue counts sync attempts per identifier and fails the first
// failuresBefore attempts of each.
type fakeCatalogue struct {
	mu             sync.Mutex
	attempts       map[int64]int
	failuresBefore int
}

func newFakeCatalogue(failuresBefore int) *fakeCatalogue {
	return &fakeCatalogue{attempts: make(map[int64]int), failuresBefore: failuresBefore}
}

func (f *fakeCatalogue) SyncOne(_ context.Context, id int64, _ string) (*manhwa.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts[id]++
	if f.attempts[id] <= f.failuresBefore {
		return nil, errors.New("upstream unavailable")
	}
	return &manhwa.SyncResult{Status: manhwa.SyncResultSuccess}, nil
}

func (f *fakeCatalogue) attemptCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id]
}

// fakeCandidateStore serves a fixed candidate list.
type fakeCandidateStore struct {
	candidates []manhwa.SyncCandidate
	err        error
}

func (f *fakeCandidateStore) ListSyncCandidates(_ context.Context, _ time.Time, _ int) ([]manhwa.SyncCandidate, error) {
	return f.candidates, f.err
}

func newTestSyncer(catalogue Catalogue, store CandidateStore, batchSize int) *Syncer {
	s := New(catalogue, store, batchSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.batchDelay = time.Millisecond
	return s
}

/*
TestSyncer_ProcessQueue_DrainsQueue verifies that one processing pass empties
the queue and attempts every task exactly once when all succeed.
*/
func TestSyncer_ProcessQueue_DrainsQueue(t *testing.T) {
	catalogue := newFakeCatalogue(0)
	s := newTestSyncer(catalogue, &fakeCandidateStore{}, 2)

	for id := int64(1); id <= 5; id++ {
		s.queue.Enqueue(Item{ID: id, Priority: 1})
	}
	s.ProcessQueue()

	assert.Equal(t, 0, s.queue.Len())
	for id := int64(1); id <= 5; id++ {
		assert.Equal(t, 1, catalogue.attemptCount(id))
	}
	assert.False(t, s.processing.Load())
}

/*
TestSyncer_RetryBudget verifies that a persistently failing task is retried
with decaying priority and abandoned after the attempt budget is spent.
*/
func TestSyncer_RetryBudget(t *testing.T) {
	catalogue := newFakeCatalogue(1000)
	s := newTestSyncer(catalogue, &fakeCandidateStore{}, 1)

	s.queue.Enqueue(Item{ID: 42, UpstreamID: "u-42", Priority: 0})
	s.ProcessQueue()

	// One initial attempt plus maxRetries re-enqueues.
	assert.Equal(t, 1+maxRetries, catalogue.attemptCount(42))
	assert.Equal(t, 0, s.queue.Len())
}

/*
TestSyncer_RetryThenSuccess verifies that a transient failure recovers without
spending the whole attempt budget.
*/
func TestSyncer_RetryThenSuccess(t *testing.T) {
	catalogue := newFakeCatalogue(2)
	s := newTestSyncer(catalogue, &fakeCandidateStore{}, 1)

	s.queue.Enqueue(Item{ID: 9, UpstreamID: "u-9", Priority: 1})
	s.ProcessQueue()

	assert.Equal(t, 3, catalogue.attemptCount(9))
	assert.Equal(t, 0, s.queue.Len())
}

/*
TestSyncer_QueueOutdated verifies the seed pass: every candidate enqueues
once, previously failed records take immediate priority, and a second seed
against an unchanged queue is a no-op.
*/
func TestSyncer_QueueOutdated(t *testing.T) {
	store := &fakeCandidateStore{candidates: []manhwa.SyncCandidate{
		{ID: 1, UpstreamID: "a", SyncStatus: manhwa.SyncOutdated},
		{ID: 2, UpstreamID: "b", SyncStatus: manhwa.SyncFailed},
		{ID: 3, UpstreamID: "c", SyncStatus: manhwa.SyncOutdated},
	}}
	s := newTestSyncer(newFakeCatalogue(0), store, 10)

	assert.Equal(t, 3, s.QueueOutdated(context.Background()))
	assert.Equal(t, 0, s.QueueOutdated(context.Background()))
	assert.Equal(t, 3, s.Status().QueueLength)

	// The failed record drains before the routinely stale ones.
	batch := s.queue.TakeBatch(1)
	require.Len(t, batch, 1)
	assert.Equal(t, int64(2), batch[0].ID)
	assert.Equal(t, priorityImmediate, batch[0].Priority)
}

/*
TestSyncer_QueueOutdated_StoreError verifies that a failing candidate scan
enqueues nothing instead of propagating.
*/
func TestSyncer_QueueOutdated_StoreError(t *testing.T) {
	store := &fakeCandidateStore{err: errors.New("postgres unreachable")}
	s := newTestSyncer(newFakeCatalogue(0), store, 10)

	assert.Equal(t, 0, s.QueueOutdated(context.Background()))
	assert.Equal(t, 0, s.Status().QueueLength)
}

/*
TestSyncer_ProcessQueue_SingleLoop verifies the re-entry guard: a call while a
loop is already draining returns immediately instead of racing it.
*/
func TestSyncer_ProcessQueue_SingleLoop(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := &blockingCatalogue{started: started, release: release}
	s := newTestSyncer(blocking, &fakeCandidateStore{}, 1)

	s.queue.Enqueue(Item{ID: 1, Priority: 0})

	done := make(chan struct{})
	go func() {
		s.ProcessQueue()
		close(done)
	}()

	<-started
	assert.True(t, s.Status().IsProcessing)

	// The second call must bounce off the guard, not block on the channel.
	s.ProcessQueue()

	close(release)
	<-done
	assert.False(t, s.Status().IsProcessing)
	assert.Equal(t, 1, blocking.calls())
}

// blockingCatalogue signals its first call and blocks until released.
type blockingCatalogue struct {
	mu       sync.Mutex
	count    int
	started  chan struct{}
	release  chan struct{}
	signaled bool
}

func (b *blockingCatalogue) SyncOne(_ context.Context, _ int64, _ string) (*manhwa.SyncResult, error) {
	b.mu.Lock()
	b.count++
	if !b.signaled {
		b.signaled = true
		close(b.started)
	}
	b.mu.Unlock()

	<-b.release
	return &manhwa.SyncResult{Status: manhwa.SyncResultSuccess}, nil
}

func (b *blockingCatalogue) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
