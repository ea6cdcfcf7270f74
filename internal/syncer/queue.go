// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package syncer

import (
	"container/heap"
	"sync"
)

// Item is one queued synchronisation task.
type Item struct {
	ID         int64  `json:"id"`
	UpstreamID string `json:"upstreamId"`
	Priority   int    `json:"priority"` // Lower runs sooner
	Retries    int    `json:"retries"`

	// sequence breaks priority ties in enqueue order.
	sequence uint64
	// index is maintained by the heap interface.
	index int
}

// # Priority Queue

// queue is a mutex-guarded priority queue of sync tasks with identifier
// deduplication. Ordering is ascending by priority; equal priorities run in
// enqueue order.
type queue struct {
	mu      sync.Mutex
	items   itemHeap
	present map[int64]bool
	seq     uint64
}

// newQueue creates an empty queue.
func newQueue() *queue {
	return &queue{present: make(map[int64]bool)}
}

// Enqueue adds a task unless its identifier is already queued. It reports
// whether the task was accepted.
func (q *queue) Enqueue(item Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.present[item.ID] {
		return false
	}

	q.seq++
	item.sequence = q.seq
	q.present[item.ID] = true
	heap.Push(&q.items, &item)
	return true
}

// TakeBatch removes and returns up to n tasks in priority order.
func (q *queue) TakeBatch(n int) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := n
	if count > q.items.Len() {
		count = q.items.Len()
	}

	batch := make([]Item, 0, count)
	for range count {
		item := heap.Pop(&q.items).(*Item)
		delete(q.present, item.ID)
		batch = append(batch, *item)
	}
	return batch
}

// Len returns the number of queued tasks.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Snapshot returns a copy of every queued task for status reporting. The
// copy is unordered beyond the heap's partial order.
func (q *queue) Snapshot() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]Item, 0, q.items.Len())
	for _, item := range q.items {
		items = append(items, *item)
	}
	return items
}

// # Heap Plumbing

// itemHeap implements heap.Interface over queued tasks.
type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].sequence < h[j].sequence
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	item := x.(*Item)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
