// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manhwa_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/manhwaru/internal/cache"
	"github.com/taibuivan/manhwaru/internal/core/manhwa"
	"github.com/taibuivan/manhwaru/internal/platform/apperr"
	"github.com/taibuivan/manhwaru/internal/upstream"
)

// # Fakes

// fakeStore is an in-memory Store with call counters for the paths the
// service orchestrates.
type fakeStore struct {
	mu      sync.Mutex
	records map[int64]*manhwa.Manhwa
	genres  []manhwa.Genre
	nextID  int64

	findByIDCalls  atomic.Int32
	findByIDsCalls atomic.Int32
	fullTextCalls  atomic.Int32
	allGenresCalls atomic.Int32
	insertCalls    atomic.Int32
	updateCalls    atomic.Int32

	failedIDs    []int64
	lastInserted *manhwa.Manhwa
	lastQuery    string

	fullTextHits    []manhwa.RankedManhwa
	fullTextBlock   chan struct{}
	fullTextStarted chan struct{}
	startOnce       sync.Once

	findBlock   chan struct{}
	findStarted chan struct{}
	findOnce    sync.Once
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[int64]*manhwa.Manhwa), nextID: 1000}
}

func (f *fakeStore) FindByID(ctx context.Context, id int64) (*manhwa.Manhwa, error) {
	f.findByIDCalls.Add(1)
	if f.findStarted != nil {
		f.findOnce.Do(func() { close(f.findStarted) })
	}
	if f.findBlock != nil {
		select {
		case <-f.findBlock:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[id]
	if !ok {
		return nil, apperr.NotFound("manhwa")
	}
	return record, nil
}

func (f *fakeStore) FindByIDs(_ context.Context, ids []int64) ([]*manhwa.Manhwa, error) {
	f.findByIDsCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	found := make([]*manhwa.Manhwa, 0, len(ids))
	for _, id := range ids {
		if record, ok := f.records[id]; ok {
			found = append(found, record)
		}
	}
	return found, nil
}

func (f *fakeStore) FindByUpstreamID(_ context.Context, upstreamID string) (*manhwa.Manhwa, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		if record.UpstreamID == upstreamID {
			return record, nil
		}
	}
	return nil, apperr.NotFound("manhwa")
}

func (f *fakeStore) Insert(_ context.Context, record *manhwa.Manhwa, _ []int32) (int64, error) {
	f.insertCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	clone := *record
	clone.ID = f.nextID
	clone.Version = 1
	f.records[clone.ID] = &clone
	f.lastInserted = &clone
	return clone.ID, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, patch *manhwa.Manhwa) error {
	f.updateCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[id]
	if !ok {
		return apperr.NotFound("manhwa")
	}
	if patch.TitleData.Primary != "" {
		record.TitleData.Primary = patch.TitleData.Primary
	}
	record.LastSyncedAt = patch.LastSyncedAt
	record.SyncStatus = patch.SyncStatus
	record.Version++
	return nil
}

func (f *fakeStore) MarkSyncFailed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failedIDs = append(f.failedIDs, id)
	if record, ok := f.records[id]; ok {
		record.SyncStatus = manhwa.SyncFailed
	}
	return nil
}

func (f *fakeStore) FullTextSearch(ctx context.Context, query string, _ manhwa.Filter, _, _ int) ([]manhwa.RankedManhwa, int, error) {
	f.fullTextCalls.Add(1)
	f.mu.Lock()
	f.lastQuery = query
	f.mu.Unlock()

	if f.fullTextStarted != nil {
		f.startOnce.Do(func() { close(f.fullTextStarted) })
	}
	if f.fullTextBlock != nil {
		select {
		case <-f.fullTextBlock:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	return f.fullTextHits, len(f.fullTextHits), nil
}

func (f *fakeStore) FilterSearch(_ context.Context, _ manhwa.Filter, _, _ int) ([]*manhwa.Manhwa, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) ListGenresBySlug(_ context.Context, slugs []string) ([]manhwa.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		wanted[s] = true
	}
	found := make([]manhwa.Genre, 0, len(slugs))
	for _, genre := range f.genres {
		if wanted[genre.Slug] {
			found = append(found, genre)
		}
	}
	return found, nil
}

func (f *fakeStore) ListAllGenres(_ context.Context) ([]manhwa.Genre, error) {
	f.allGenresCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.genres, nil
}

func (f *fakeStore) CreateGenre(_ context.Context, genre manhwa.Genre) (*manhwa.Genre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	genre.ID = int32(len(f.genres) + 1)
	f.genres = append(f.genres, genre)
	return &genre, nil
}

func (f *fakeStore) ListSyncCandidates(_ context.Context, _ time.Time, _ int) ([]manhwa.SyncCandidate, error) {
	return nil, nil
}

func (f *fakeStore) markedFailed() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.failedIDs...)
}

func (f *fakeStore) searchedQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

// fakeUpstream is a canned UpstreamCatalogue.
type fakeUpstream struct {
	searchResults []upstream.Manga
	searchErr     error
	manga         *upstream.Manga
	mangaErr      error
	tags          []upstream.Tag

	getCalls atomic.Int32
}

func (f *fakeUpstream) Search(_ context.Context, _ upstream.Query) ([]upstream.Manga, error) {
	return f.searchResults, f.searchErr
}

func (f *fakeUpstream) GetManga(_ context.Context, _ string) (*upstream.Manga, error) {
	f.getCalls.Add(1)
	return f.manga, f.mangaErr
}

func (f *fakeUpstream) GetRandom(_ context.Context) (*upstream.Manga, error) {
	return f.manga, f.mangaErr
}

func (f *fakeUpstream) ListTags(_ context.Context) []upstream.Tag {
	return f.tags
}

func (f *fakeUpstream) CoverURLs(upstreamID, filename string) upstream.Covers {
	if filename == "" {
		return upstream.Covers{}
	}
	base := "https://covers.test/" + upstreamID + "/" + filename
	return upstream.Covers{Thumb: base + ".256.jpg", Medium: base + ".512.jpg", Large: base}
}

// fakeScheduler records fire-and-forget refresh requests.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []int64
	links []string
}

func (f *fakeScheduler) SyncNow(id int64, upstreamID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	f.links = append(f.links, upstreamID)
}

func (f *fakeScheduler) scheduled() ([]int64, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.calls...), append([]string(nil), f.links...)
}

func newTestService(t *testing.T, store *fakeStore, up *fakeUpstream) *manhwa.Service {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := cache.NewManager(cache.Config{
		EntityTTL: time.Minute,
		SearchTTL: time.Minute,
		TagTTL:    time.Minute,
		MaxKeys:   256,
	}, nil, log)
	t.Cleanup(manager.Stop)

	return manhwa.NewService(store, manhwa.NewSearchEngine(store), manager, up, log)
}

func hoursAgo(h int) *time.Time {
	ts := time.Now().Add(-time.Duration(h) * time.Hour)
	return &ts
}

// # Read Path

/*
TestService_Search_CoalescesThenCaches verifies the read-through protocol:
concurrent identical searches share one store execution, and the settled
result answers subsequent calls from the cache.
*/
func TestService_Search_CoalescesThenCaches(t *testing.T) {
	store := newFakeStore()
	store.fullTextHits = []manhwa.RankedManhwa{{
		Manhwa: manhwa.Manhwa{ID: 1, TitleData: manhwa.TitleData{Primary: "Tower of God"}, Status: manhwa.StatusOngoing},
		Score:  0.9,
	}}
	store.fullTextBlock = make(chan struct{})
	store.fullTextStarted = make(chan struct{})

	service := newTestService(t, store, &fakeUpstream{})
	params := manhwa.SearchParams{Query: "tower", Limit: 20}

	results := make(chan *manhwa.SearchResponse, 5)
	go func() {
		response, err := service.Search(context.Background(), params)
		require.NoError(t, err)
		results <- response
	}()

	<-store.fullTextStarted

	// Four more identical searches join while the producer is blocked.
	for i := 0; i < 4; i++ {
		go func() {
			response, err := service.Search(context.Background(), params)
			require.NoError(t, err)
			results <- response
		}()
	}
	time.Sleep(20 * time.Millisecond)

	close(store.fullTextBlock)

	for i := 0; i < 5; i++ {
		response := <-results
		require.Len(t, response.Results, 1)
		assert.Equal(t, "Tower of God", response.Results[0].Title)
	}
	assert.Equal(t, int32(1), store.fullTextCalls.Load())

	// The settled page now lives in the search tier.
	response, err := service.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, response.Results, 1)
	assert.Equal(t, int32(1), store.fullTextCalls.Load())
}

/*
TestService_Search_ProducerSurvivesWaiterCancellation verifies that the
shared execution is detached from its initiator: the first caller cancelling
mid-flight unblocks only that caller, while the store query runs to
completion and answers the remaining waiters.
*/
func TestService_Search_ProducerSurvivesWaiterCancellation(t *testing.T) {
	store := newFakeStore()
	store.fullTextHits = []manhwa.RankedManhwa{{
		Manhwa: manhwa.Manhwa{ID: 1, TitleData: manhwa.TitleData{Primary: "Tower of God"}, Status: manhwa.StatusOngoing},
		Score:  0.9,
	}}
	store.fullTextBlock = make(chan struct{})
	store.fullTextStarted = make(chan struct{})

	service := newTestService(t, store, &fakeUpstream{})
	params := manhwa.SearchParams{Query: "tower", Limit: 20}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := service.Search(leaderCtx, params)
		leaderErr <- err
	}()

	<-store.fullTextStarted

	// A second caller joins the flight before the first one bails out.
	followerResult := make(chan *manhwa.SearchResponse, 1)
	go func() {
		response, err := service.Search(context.Background(), params)
		require.NoError(t, err)
		followerResult <- response
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(store.fullTextBlock)

	response := <-followerResult
	require.Len(t, response.Results, 1)
	assert.Equal(t, "Tower of God", response.Results[0].Title)
	assert.Equal(t, int32(1), store.fullTextCalls.Load())
}

/*
TestService_GetByID_LoadSurvivesWaiterCancellation verifies the same
detachment on the entity path: a cancelled caller never fails the coalesced
store load for its followers.
*/
func TestService_GetByID_LoadSurvivesWaiterCancellation(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &manhwa.Manhwa{ID: 1, DataSource: manhwa.SourceLocal, TitleData: manhwa.TitleData{Primary: "Local Hero"}}
	store.findBlock = make(chan struct{})
	store.findStarted = make(chan struct{})

	service := newTestService(t, store, &fakeUpstream{})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := service.GetByID(leaderCtx, 1, false)
		leaderErr <- err
	}()

	<-store.findStarted

	followerResult := make(chan *manhwa.Manhwa, 1)
	go func() {
		record, err := service.GetByID(context.Background(), 1, false)
		require.NoError(t, err)
		followerResult <- record
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(store.findBlock)

	record := <-followerResult
	assert.Equal(t, int64(1), record.ID)
	assert.Equal(t, int32(1), store.findByIDCalls.Load())
}

/*
TestService_Search_StripsQueryNegation verifies query sanitisation at the
store boundary: quotes and token-leading hyphens disappear, interior hyphens
survive, and whitespace is normalised.
*/
func TestService_Search_StripsQueryNegation(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeUpstream{})

	_, err := service.Search(context.Background(), manhwa.SearchParams{
		Query: `  -horror "sci-fi   tower`,
	})
	require.NoError(t, err)

	assert.Equal(t, "horror sci-fi tower", store.searchedQuery())
}

/*
TestService_Search_ExternalFallback verifies that an empty local page with the
external opt-in grafts upstream hits onto the response: unimported records
carry ID 0, a truncated synopsis, derived cover URLs, and a single-page
window.
*/
func TestService_Search_ExternalFallback(t *testing.T) {
	store := newFakeStore()
	up := &fakeUpstream{searchResults: []upstream.Manga{{
		UpstreamID:    "uuid-solo",
		Title:         "Solo Leveling",
		Synopsis:      strings.Repeat("a", 250),
		Status:        "completed",
		TotalChapters: 179,
		CoverFilename: "cover.jpg",
		Tags: []upstream.Tag{
			{ID: "t1", Name: "Action", Group: "genre"},
			{ID: "t2", Name: "Award Winning", Group: "format"},
		},
	}}}

	service := newTestService(t, store, up)

	response, err := service.Search(context.Background(), manhwa.SearchParams{
		Query:           "solo leveling",
		IncludeExternal: true,
	})
	require.NoError(t, err)

	require.Len(t, response.Results, 1)
	hit := response.Results[0]
	assert.Equal(t, int64(0), hit.ID)
	assert.Equal(t, strings.Repeat("a", 200)+"…", hit.Synopsis)
	assert.Equal(t, []string{"Action"}, hit.Genres)
	assert.Contains(t, hit.CoverThumb, "cover.jpg")

	assert.Equal(t, 1, response.Pagination.TotalPages)
	assert.Equal(t, 1, response.Pagination.TotalResults)
	assert.Equal(t, []string{"local", "external"}, response.Metadata.SourcesQueried)
}

/*
TestService_Search_ExternalFailureDegrades verifies that an upstream outage
annotates the response instead of failing the search.
*/
func TestService_Search_ExternalFailureDegrades(t *testing.T) {
	store := newFakeStore()
	up := &fakeUpstream{searchErr: errors.New("upstream returned 503")}

	service := newTestService(t, store, up)

	response, err := service.Search(context.Background(), manhwa.SearchParams{
		Query:           "nonexistent",
		IncludeExternal: true,
	})
	require.NoError(t, err)

	assert.Empty(t, response.Results)
	assert.Equal(t, []string{"local", "external (failed)"}, response.Metadata.SourcesQueried)
}

/*
TestService_GetByID_StaleCacheHitSchedulesRefresh verifies that a stale cached
record answers immediately while a background refresh is handed to the
scheduler.
*/
func TestService_GetByID_StaleCacheHitSchedulesRefresh(t *testing.T) {
	store := newFakeStore()
	record := &manhwa.Manhwa{
		ID:           1,
		UpstreamID:   "uuid-1",
		DataSource:   manhwa.SourceUpstream,
		TitleData:    manhwa.TitleData{Primary: "Tower of God"},
		SyncStatus:   manhwa.SyncCurrent,
		LastSyncedAt: hoursAgo(1),
	}
	store.records[1] = record

	service := newTestService(t, store, &fakeUpstream{})
	scheduler := &fakeScheduler{}
	service.SetRefreshScheduler(scheduler)

	// Fresh record: load, populate the entity tier, no refresh.
	_, err := service.GetByID(context.Background(), 1, false)
	require.NoError(t, err)
	ids, _ := scheduler.scheduled()
	assert.Empty(t, ids)

	// The cached record crosses the staleness horizon.
	record.LastSyncedAt = hoursAgo(25)

	got, err := service.GetByID(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	ids, links := scheduler.scheduled()
	assert.Equal(t, []int64{1}, ids)
	assert.Equal(t, []string{"uuid-1"}, links)

	// Both reads were answered without a second store round-trip.
	assert.Equal(t, int32(1), store.findByIDCalls.Load())
}

/*
TestService_GetByID_ForceRefreshSyncsInline verifies that forceRefresh bypasses
the cache and synchronises before answering.
*/
func TestService_GetByID_ForceRefreshSyncsInline(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &manhwa.Manhwa{
		ID:           1,
		UpstreamID:   "uuid-1",
		DataSource:   manhwa.SourceUpstream,
		TitleData:    manhwa.TitleData{Primary: "Old Title"},
		SyncStatus:   manhwa.SyncOutdated,
		LastSyncedAt: hoursAgo(48),
		Version:      3,
	}
	up := &fakeUpstream{manga: &upstream.Manga{
		UpstreamID:    "uuid-1",
		Title:         "New Title",
		Status:        "ongoing",
		CoverFilename: "c.jpg",
	}}

	service := newTestService(t, store, up)

	got, err := service.GetByID(context.Background(), 1, true)
	require.NoError(t, err)

	assert.Equal(t, "New Title", got.TitleData.Primary)
	assert.Equal(t, manhwa.SyncCurrent, got.SyncStatus)
	require.NotNil(t, got.LastSyncedAt)
	assert.WithinDuration(t, time.Now(), *got.LastSyncedAt, time.Minute)
	assert.Equal(t, int32(1), store.updateCalls.Load())
	assert.Equal(t, int32(1), up.getCalls.Load())
}

/*
TestService_GetByID_InlineSyncFailureDegrades verifies that a failed inline
refresh serves the stale row and persists the failed sync status.
*/
func TestService_GetByID_InlineSyncFailureDegrades(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &manhwa.Manhwa{
		ID:           1,
		UpstreamID:   "uuid-1",
		DataSource:   manhwa.SourceUpstream,
		TitleData:    manhwa.TitleData{Primary: "Tower of God"},
		SyncStatus:   manhwa.SyncCurrent,
		LastSyncedAt: hoursAgo(48),
	}
	up := &fakeUpstream{mangaErr: apperr.RateLimited(30)}

	service := newTestService(t, store, up)

	got, err := service.GetByID(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, "Tower of God", got.TitleData.Primary)
	assert.Equal(t, []int64{1}, store.markedFailed())
}

/*
TestService_BulkGet verifies the batched load: one store round-trip for the
misses, unknown identifiers reported rather than erroring, and cache hits
shrinking subsequent batches.
*/
func TestService_BulkGet(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &manhwa.Manhwa{ID: 1, TitleData: manhwa.TitleData{Primary: "One"}}
	store.records[2] = &manhwa.Manhwa{ID: 2, TitleData: manhwa.TitleData{Primary: "Two"}}

	service := newTestService(t, store, &fakeUpstream{})

	entities, notFound, err := service.BulkGet(context.Background(), []int64{1, 2, 99})
	require.NoError(t, err)
	assert.Len(t, entities, 2)
	assert.Equal(t, []int64{99}, notFound)
	assert.Equal(t, int32(1), store.findByIDsCalls.Load())

	// The found records now answer from the entity tier.
	entities, notFound, err = service.BulkGet(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, entities, 2)
	assert.Empty(t, notFound)
	assert.Equal(t, int32(1), store.findByIDsCalls.Load())
}

// # Write Path

/*
TestService_Create_UnknownGenresRejected verifies that a create referencing a
genre slug outside the taxonomy rejects the whole request before any write.
*/
func TestService_Create_UnknownGenresRejected(t *testing.T) {
	store := newFakeStore()
	store.genres = []manhwa.Genre{{ID: 1, Name: "Action", Slug: "action"}}

	service := newTestService(t, store, &fakeUpstream{})

	_, err := service.Create(context.Background(), manhwa.CreateInput{
		TitleData: manhwa.TitleData{Primary: "Local Hero"},
		Synopsis:  "A hand-curated entry for testing.",
		Status:    manhwa.StatusOngoing,
		Genres:    []string{"action", "isekai"},
	})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeBadInput))
	assert.Contains(t, err.Error(), "isekai")
	assert.Equal(t, int32(0), store.insertCalls.Load())
}

/*
TestService_Create_InvalidatesSearchPages verifies that a successful create
drops every cached search page so no result predating the write survives.
*/
func TestService_Create_InvalidatesSearchPages(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeUpstream{})
	params := manhwa.SearchParams{Query: "hero"}

	_, err := service.Search(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, int32(1), store.fullTextCalls.Load())

	created, err := service.Create(context.Background(), manhwa.CreateInput{
		TitleData: manhwa.TitleData{Primary: "Local Hero"},
		Synopsis:  "A hand-curated entry for testing.",
		Status:    manhwa.StatusOngoing,
	})
	require.NoError(t, err)
	assert.Equal(t, manhwa.SourceLocal, created.DataSource)
	assert.Equal(t, manhwa.SyncCurrent, created.SyncStatus)
	assert.Empty(t, created.UpstreamID)

	// The cached page is gone; the search runs again.
	_, err = service.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.fullTextCalls.Load())
}

/*
TestService_Import_DuplicateRejected verifies that an upstream identifier
already linked locally rejects the import without an upstream fetch.
*/
func TestService_Import_DuplicateRejected(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &manhwa.Manhwa{ID: 1, UpstreamID: "uuid-dup", DataSource: manhwa.SourceUpstream}
	up := &fakeUpstream{}

	service := newTestService(t, store, up)

	_, err := service.Import(context.Background(), "uuid-dup")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeBadInput))
	assert.Contains(t, err.Error(), "already imported")
	assert.Equal(t, int32(0), up.getCalls.Load())
}

/*
TestService_Import_PersistsUpstreamRecord verifies that an import lands with
upstream provenance, derived cover URLs, and a fresh sync timestamp.
*/
func TestService_Import_PersistsUpstreamRecord(t *testing.T) {
	store := newFakeStore()
	up := &fakeUpstream{manga: &upstream.Manga{
		UpstreamID:    "uuid-9",
		Title:         "Omniscient Reader",
		Synopsis:      "Only I know how this world ends.",
		Status:        "ongoing",
		Publisher:     "Munpia",
		StartYear:     2018,
		TotalChapters: 551,
		CoverFilename: "orv.jpg",
	}}

	service := newTestService(t, store, up)

	imported, err := service.Import(context.Background(), "uuid-9")
	require.NoError(t, err)

	assert.Equal(t, manhwa.SourceUpstream, imported.DataSource)
	assert.Equal(t, "uuid-9", imported.UpstreamID)
	assert.Equal(t, manhwa.SyncCurrent, imported.SyncStatus)
	require.NotNil(t, imported.LastSyncedAt)
	require.NotNil(t, imported.StartYear)
	assert.Equal(t, int16(2018), *imported.StartYear)
	assert.Contains(t, imported.Covers.Thumb, "orv.jpg")
}

/*
TestService_SyncOne_FailureMarksRecord verifies that a failed synchronisation
persists the failed status and surfaces a wrapped sync error with the specific
reason for an upstream deletion.
*/
func TestService_SyncOne_FailureMarksRecord(t *testing.T) {
	store := newFakeStore()
	up := &fakeUpstream{mangaErr: apperr.NotFound("manga")}

	service := newTestService(t, store, up)

	result, err := service.SyncOne(context.Background(), 5, "uuid-5")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeSyncFailed))

	require.NotNil(t, result)
	assert.Equal(t, manhwa.SyncResultFailed, result.Status)
	assert.Equal(t, "Manga no longer exists on Upstream", result.Message)
	assert.Equal(t, []int64{5}, store.markedFailed())
}

/*
TestService_SyncOne_LocalWriteFailureKeepsGenericMessage verifies that a
failure persisting the fetched payload reports the generic sync message: the
upstream record does exist, so the deletion message would be wrong.
*/
func TestService_SyncOne_LocalWriteFailureKeepsGenericMessage(t *testing.T) {
	store := newFakeStore()
	up := &fakeUpstream{manga: &upstream.Manga{
		UpstreamID:    "uuid-7",
		Title:         "Still Upstream",
		Status:        "ongoing",
		CoverFilename: "c.jpg",
	}}

	service := newTestService(t, store, up)

	// No local row with ID 7, so the update fails with a local not-found.
	result, err := service.SyncOne(context.Background(), 7, "uuid-7")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeSyncFailed))

	require.NotNil(t, result)
	assert.Equal(t, manhwa.SyncResultFailed, result.Status)
	assert.Equal(t, "Synchronisation failed", result.Message)
	assert.Equal(t, []int64{7}, store.markedFailed())
}

/*
TestService_LocalRecordsDoNotSynchronise verifies that the refresh paths
reject locally curated records, which carry no upstream link.
*/
func TestService_LocalRecordsDoNotSynchronise(t *testing.T) {
	store := newFakeStore()
	store.records[3] = &manhwa.Manhwa{ID: 3, DataSource: manhwa.SourceLocal, TitleData: manhwa.TitleData{Primary: "Local Only"}}

	service := newTestService(t, store, &fakeUpstream{})

	_, err := service.Refresh(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeBadInput))

	_, err = service.FindUpstreamLink(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeBadInput))
}

// # Taxonomy

/*
TestService_CreateGenre verifies slug generation from the name and that the
cached genre list is invalidated by the write.
*/
func TestService_CreateGenre(t *testing.T) {
	store := newFakeStore()
	store.genres = []manhwa.Genre{{ID: 1, Name: "Action", Slug: "action"}}

	service := newTestService(t, store, &fakeUpstream{})

	genres, err := service.ListGenres(context.Background())
	require.NoError(t, err)
	assert.Len(t, genres, 1)

	// Cached: no second store read.
	_, err = service.ListGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.allGenresCalls.Load())

	created, err := service.CreateGenre(context.Background(), manhwa.GenreInput{Name: "Slice of Life"})
	require.NoError(t, err)
	assert.Equal(t, "slice-of-life", created.Slug)

	genres, err = service.ListGenres(context.Background())
	require.NoError(t, err)
	assert.Len(t, genres, 2)
	assert.Equal(t, int32(2), store.allGenresCalls.Load())
}
