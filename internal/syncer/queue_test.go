// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestQueue_PriorityOrder verifies that tasks drain lowest priority first
regardless of enqueue order.
*/
func TestQueue_PriorityOrder(t *testing.T) {
	q := newQueue()

	require.True(t, q.Enqueue(Item{ID: 1, Priority: 5}))
	require.True(t, q.Enqueue(Item{ID: 2, Priority: 0}))
	require.True(t, q.Enqueue(Item{ID: 3, Priority: 3}))

	batch := q.TakeBatch(3)
	require.Len(t, batch, 3)
	assert.Equal(t, int64(2), batch[0].ID)
	assert.Equal(t, int64(3), batch[1].ID)
	assert.Equal(t, int64(1), batch[2].ID)
}

/*
TestQueue_FIFOWithinPriority verifies that equal priorities run in enqueue
order.
*/
func TestQueue_FIFOWithinPriority(t *testing.T) {
	q := newQueue()

	for id := int64(1); id <= 5; id++ {
		require.True(t, q.Enqueue(Item{ID: id, Priority: 1}))
	}

	batch := q.TakeBatch(5)
	require.Len(t, batch, 5)
	for i, item := range batch {
		assert.Equal(t, int64(i+1), item.ID)
	}
}

/*
TestQueue_DeduplicatesByID verifies that a queued identifier cannot be queued
again until it has been taken.
*/
func TestQueue_DeduplicatesByID(t *testing.T) {
	q := newQueue()

	assert.True(t, q.Enqueue(Item{ID: 7, Priority: 1}))
	assert.False(t, q.Enqueue(Item{ID: 7, Priority: 0}))
	assert.Equal(t, 1, q.Len())

	batch := q.TakeBatch(1)
	require.Len(t, batch, 1)

	// Once drained the identifier may re-enter, e.g. for a retry.
	assert.True(t, q.Enqueue(Item{ID: 7, Priority: 2}))
	assert.Equal(t, 1, q.Len())
}

/*
TestQueue_TakeBatchBounds verifies that TakeBatch never over-reads and that an
empty queue yields an empty batch.
*/
func TestQueue_TakeBatchBounds(t *testing.T) {
	q := newQueue()

	q.Enqueue(Item{ID: 1, Priority: 1})
	q.Enqueue(Item{ID: 2, Priority: 1})
	q.Enqueue(Item{ID: 3, Priority: 1})

	assert.Len(t, q.TakeBatch(10), 3)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.TakeBatch(10))
}

/*
TestQueue_Snapshot verifies that the status snapshot does not drain the queue.
*/
func TestQueue_Snapshot(t *testing.T) {
	q := newQueue()

	q.Enqueue(Item{ID: 1, UpstreamID: "a", Priority: 1})
	q.Enqueue(Item{ID: 2, UpstreamID: "b", Priority: 0})

	snapshot := q.Snapshot()
	assert.Len(t, snapshot, 2)
	assert.Equal(t, 2, q.Len())
}
