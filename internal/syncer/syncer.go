// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package syncer keeps upstream-sourced catalogue records fresh.

It owns an in-process priority queue of synchronisation tasks, seeded by a
cron trigger from the store's outdated-record scan and fed directly by
manual refresh requests. A single processing loop drains the queue in
concurrent batches, retrying failures with decaying priority before giving
up and leaving the failed status for the next cron pass to pick up.

Architecture:

  - Queue: priority ordered, identifier deduplicated, in-memory only; the
    store's sync columns are the durable source it is re-seeded from.
  - Worker: one guarded loop; batches run concurrently, batches themselves
    run serially with a fixed delay between them.
  - Triggers: cron tick, admin full-sync kick, and the fire-and-forget
    refresh path used by stale reads.
*/
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/manhwaru/internal/core/manhwa"
	"github.com/taibuivan/manhwaru/internal/platform/constants"
)

const (
	// outdatedScanLimit caps how many stale rows one cron tick enqueues.
	outdatedScanLimit = 100

	// maxRetries bounds re-enqueues per task: 1 + maxRetries attempts total.
	maxRetries = 3

	// maxPriority is the decay floor; retried tasks never sink below it.
	maxPriority = 10

	// defaultBatchDelay separates consecutive batches, spreading upstream
	// load across the rate-limit windows.
	defaultBatchDelay = 2 * time.Second
)

// Task priorities. Lower runs sooner.
const (
	priorityImmediate = 0 // Manual requests and previously failed records
	priorityOutdated  = 1 // Routine staleness
)

// # Collaborator Contracts

// Catalogue is the slice of the catalogue service the syncer drives.
type Catalogue interface {
	SyncOne(ctx context.Context, id int64, upstreamID string) (*manhwa.SyncResult, error)
}

// CandidateStore supplies the outdated-record scan backing QueueOutdated.
type CandidateStore interface {
	ListSyncCandidates(ctx context.Context, staleBefore time.Time, limit int) ([]manhwa.SyncCandidate, error)
}

// # Syncer

// Status is the operator-facing snapshot of the syncer.
type Status struct {
	QueueLength  int    `json:"queueLength"`
	IsProcessing bool   `json:"isProcessing"`
	Items        []Item `json:"items"`
}

// Syncer owns the sync queue, the cron trigger, and the processing loop.
type Syncer struct {
	catalogue Catalogue
	store     CandidateStore
	log       *slog.Logger

	queue      *queue
	batchSize  int
	batchDelay time.Duration
	processing atomic.Bool

	cron *cron.Cron

	// baseCtx cancels in-flight work on shutdown; individual waiter
	// cancellation never reaches a running sync.
	baseCtx context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// New constructs a [Syncer]. Start must be called to arm the cron trigger.
func New(catalogue Catalogue, store CandidateStore, batchSize int, log *slog.Logger) *Syncer {
	if batchSize < 1 {
		batchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Syncer{
		catalogue:  catalogue,
		store:      store,
		log:        log,
		queue:      newQueue(),
		batchSize:  batchSize,
		batchDelay: defaultBatchDelay,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Start arms the cron trigger with the given schedule and runs one full pass
// immediately so a fresh deployment does not wait for the first tick.
func (s *Syncer) Start(schedule string) error {
	logger := &cronLogger{log: s.log}
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	))

	if _, err := s.cron.AddFunc(schedule, s.KickFullSync); err != nil {
		return err
	}
	s.cron.Start()

	s.log.Info("syncer_started", slog.String("schedule", schedule))

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		s.KickFullSync()
	}()
	return nil
}

// Stop halts the cron trigger, cancels in-flight work, and waits for the
// processing loop to exit.
func (s *Syncer) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.cancel()
	s.workers.Wait()
	s.log.Info("syncer_stopped")
}

// # Triggers

/*
QueueOutdated enqueues every record due for a refresh.

Description: Scans the store for upstream-sourced records that never synced,
fell past the staleness horizon, or failed their previous attempt. Failed
records enter at immediate priority so they retry before routine staleness;
records already queued are left untouched.

Parameters:
  - ctx: context.Context

Returns:
  - int: How many records were newly enqueued
*/
func (s *Syncer) QueueOutdated(ctx context.Context) int {
	staleBefore := time.Now().Add(-constants.SyncStaleAfter)

	candidates, err := s.store.ListSyncCandidates(ctx, staleBefore, outdatedScanLimit)
	if err != nil {
		s.log.Error("queue_error", slog.String("error", err.Error()))
		return 0
	}

	enqueued := 0
	for _, candidate := range candidates {
		priority := priorityOutdated
		if candidate.SyncStatus == manhwa.SyncFailed {
			priority = priorityImmediate
		}

		if s.queue.Enqueue(Item{ID: candidate.ID, UpstreamID: candidate.UpstreamID, Priority: priority}) {
			enqueued++
		}
	}

	if enqueued > 0 {
		s.log.Info("sync_queue_seeded", slog.Int("enqueued", enqueued))
	}
	return enqueued
}

// SyncNow enqueues one record at immediate priority and starts processing if
// the loop is idle. Safe to call from any goroutine; duplicates are dropped.
func (s *Syncer) SyncNow(id int64, upstreamID string) {
	s.queue.Enqueue(Item{ID: id, UpstreamID: upstreamID, Priority: priorityImmediate})
	s.kickProcessing()
}

// kickProcessing starts the processing loop on a tracked goroutine; the
// re-entry guard makes redundant kicks harmless.
func (s *Syncer) kickProcessing() {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		s.ProcessQueue()
	}()
}

// KickFullSync runs one seed-and-drain pass: QueueOutdated, then
// ProcessQueue. This is the cron tick and the admin /sync/all operation.
func (s *Syncer) KickFullSync() {
	s.QueueOutdated(s.baseCtx)
	s.ProcessQueue()
}

// Status returns the queue snapshot for the admin surface.
func (s *Syncer) Status() Status {
	return Status{
		QueueLength:  s.queue.Len(),
		IsProcessing: s.processing.Load(),
		Items:        s.queue.Snapshot(),
	}
}

// # Processing Loop

/*
ProcessQueue drains the queue in concurrent batches.

Description: A compare-and-swap guard keeps at most one loop running; a call
while processing is already underway returns immediately. Each batch runs
concurrently and is awaited as a whole regardless of individual failures,
then the loop pauses before the next batch. Shutdown cancels the pause and
the in-flight work.
*/
func (s *Syncer) ProcessQueue() {
	if !s.processing.CompareAndSwap(false, true) {
		return
	}
	defer s.processing.Store(false)

	for {
		batch := s.queue.TakeBatch(s.batchSize)
		if len(batch) == 0 {
			return
		}

		group, ctx := errgroup.WithContext(s.baseCtx)
		group.SetLimit(s.batchSize)
		for _, item := range batch {
			group.Go(func() error {
				s.syncItem(ctx, item)
				// Item failures are absorbed into retry bookkeeping; an
				// error here would cancel the rest of the batch.
				return nil
			})
		}
		_ = group.Wait()

		if s.queue.Len() == 0 {
			return
		}

		select {
		case <-time.After(s.batchDelay):
		case <-s.baseCtx.Done():
			return
		}
	}
}

// syncItem runs one task and applies the retry discipline: failures re-enter
// the queue with decayed priority until the attempt budget is spent.
func (s *Syncer) syncItem(ctx context.Context, item Item) {
	_, err := s.catalogue.SyncOne(ctx, item.ID, item.UpstreamID)
	if err == nil {
		return
	}

	if item.Retries < maxRetries {
		retried := Item{
			ID:         item.ID,
			UpstreamID: item.UpstreamID,
			Priority:   min(item.Priority+1, maxPriority),
			Retries:    item.Retries + 1,
		}
		s.queue.Enqueue(retried)

		s.log.Info("sync_retry",
			slog.Int64("id", item.ID),
			slog.Int("attempt", retried.Retries),
		)
		return
	}

	// Attempt budget spent; the failed status persisted by the catalogue
	// keeps the record eligible for the next cron seed.
	s.log.Error("sync_failed",
		slog.Int64("id", item.ID),
		slog.Int("attempts", item.Retries+1),
		slog.String("error", err.Error()),
	)
}

// # Cron Bridge

// cronLogger adapts slog to the cron logging interface.
type cronLogger struct {
	log *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Info("cron_"+msg, slog.Any("details", keysAndValues))
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron_"+msg, slog.String("error", err.Error()), slog.Any("details", keysAndValues))
}
