// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manhwa

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/taibuivan/manhwaru/internal/cache"
	"github.com/taibuivan/manhwaru/internal/coalesce"
	"github.com/taibuivan/manhwaru/internal/platform/apperr"
	"github.com/taibuivan/manhwaru/internal/platform/constants"
	"github.com/taibuivan/manhwaru/internal/platform/validate"
	"github.com/taibuivan/manhwaru/internal/upstream"
	"github.com/taibuivan/manhwaru/pkg/slice"
	"github.com/taibuivan/manhwaru/pkg/slug"
)

// # Collaborator Contracts

// UpstreamCatalogue is the slice of the external catalogue client the service
// depends on. The concrete implementation lives in internal/upstream; tests
// inject fakes.
type UpstreamCatalogue interface {
	Search(ctx context.Context, query upstream.Query) ([]upstream.Manga, error)
	GetManga(ctx context.Context, upstreamID string) (*upstream.Manga, error)
	GetRandom(ctx context.Context) (*upstream.Manga, error)
	ListTags(ctx context.Context) []upstream.Tag
	CoverURLs(upstreamID, filename string) upstream.Covers
}

// RefreshScheduler accepts fire-and-forget refresh requests for stale
// records. Routing them through the syncer instead of a detached goroutine
// unifies retry, deduplication, and shutdown semantics.
type RefreshScheduler interface {
	SyncNow(id int64, upstreamID string)
}

// # Service Inputs & Outputs

// CreateInput is the payload for creating a locally curated record.
type CreateInput struct {
	TitleData       TitleData `json:"titleData"`
	Synopsis        string    `json:"synopsis"`
	Status          Status    `json:"status"`
	Publisher       string    `json:"publisher,omitempty"`
	StartYear       *int16    `json:"startYear,omitempty"`
	EndYear         *int16    `json:"endYear,omitempty"`
	TotalChapters   int       `json:"totalChapters,omitempty"`
	SpecialChapters int       `json:"specialChapters,omitempty"`
	Genres          []string  `json:"genres,omitempty"` // Genre slugs; all must exist
}

// GenreInput is the payload for creating a genre through the admin surface.
type GenreInput struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"` // Generated from Name when absent
}

// SyncResult reports the outcome of one synchronisation attempt.
type SyncResult struct {
	Status       string     `json:"status"` // "success" or "failed"
	Message      string     `json:"message"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// Sync outcome labels carried by [SyncResult].
const (
	SyncResultSuccess = "success"
	SyncResultFailed  = "failed"
)

// # Catalogue Service

// Service is the public read/write facade of the catalogue.
//
// It orchestrates the cache tiers, the request coalescer, the local search
// engine, the external catalogue client, and the background syncer behind a
// read-through / write-invalidate protocol: reads populate the cache, writes
// commit to the store first and invalidate afterwards.
type Service struct {
	store     Store
	engine    *SearchEngine
	cache     *cache.Manager
	upstream  UpstreamCatalogue
	scheduler RefreshScheduler
	log       *slog.Logger

	// Coalescing groups, one per result shape. A cache miss never issues
	// duplicate concurrent work for the same key.
	searches *coalesce.Group[*SearchResponse]
	records  *coalesce.Group[*Manhwa]
}

// NewService constructs the catalogue service. The refresh scheduler is
// attached separately via [Service.SetRefreshScheduler] because the syncer is
// constructed after the service it calls back into.
func NewService(store Store, engine *SearchEngine, cacheManager *cache.Manager, upstreamClient UpstreamCatalogue, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		engine:   engine,
		cache:    cacheManager,
		upstream: upstreamClient,
		log:      log,
		searches: coalesce.NewGroup[*SearchResponse](),
		records:  coalesce.NewGroup[*Manhwa](),
	}
}

// SetRefreshScheduler attaches the background refresh sink. Until it is set,
// stale reads return their cached value without scheduling a refresh.
func (service *Service) SetRefreshScheduler(scheduler RefreshScheduler) {
	service.scheduler = scheduler
}

// # Read Path

/*
Search answers one catalogue search through the cache and the coalescer.

Description: The canonical search key is derived from the sanitised query and
every filter dimension, so logically equal requests collide regardless of
field order. On a cache miss, concurrent identical requests share a single
execution: the local engine runs first, and only when it returns nothing and
the caller opted in does the external catalogue get consulted. External
failures degrade the response instead of failing it. The shared execution
runs on a detached context, so a waiter cancelling — the initiating caller
included — never fails the flight for the others.

Parameters:
  - context: context.Context
  - params: SearchParams (Query, filters, paging, external opt-in)

Returns:
  - *SearchResponse: Hits with pagination and provenance metadata
  - error: SearchFailed wrapping store errors
*/
func (service *Service) Search(context context.Context, params SearchParams) (*SearchResponse, error) {

	// Canonicalisation before key derivation
	params.Query = sanitizeQuery(params.Query)
	params.Page, params.Limit = normalisePaging(params.Page, params.Limit)

	key := service.searchKey(params)

	// Cache Consultation
	if cached, found := cache.GetTyped[*SearchResponse](context, service.cache, cache.TierSearch, key); found {
		return cached, nil
	}

	// Coalesced Execution. The producer outlives any individual waiter, so
	// it must not inherit this request's cancellation.
	detached := detach(context)
	return service.searches.Do(context, key, func() (*SearchResponse, error) {
		start := time.Now()

		response, err := service.engine.FullTextSearch(detached, params)
		if err != nil {
			return nil, err
		}

		// External fallback only fires for an empty local page
		if len(response.Results) == 0 && params.IncludeExternal {
			service.searchExternal(detached, params, response)
		}

		response.Metadata.QueryTimeMS = time.Since(start).Milliseconds()
		cache.SetTyped(detached, service.cache, cache.TierSearch, key, response)
		return response, nil
	})
}

// searchExternal consults the upstream catalogue and grafts its hits onto the
// empty local response. A failure annotates the metadata and leaves the local
// result intact.
func (service *Service) searchExternal(context context.Context, params SearchParams, response *SearchResponse) {

	query := upstream.Query{
		Title:        params.Query,
		Limit:        params.Limit,
		Offset:       (params.Page - 1) * params.Limit,
		Statuses:     slice.Map(params.Filter.Statuses, func(status Status) string { return string(status) }),
		IncludedTags: service.resolveTagIDs(context, params.Filter.GenreSlugs),

		// The catalogue curates Korean originals; the client forwards the
		// language filter as given.
		OriginalLanguages: []string{"ko"},
	}

	records, err := service.upstream.Search(context, query)
	if err != nil {
		service.log.Warn("external_search_failed",
			slog.String("query", params.Query),
			slog.String("error", err.Error()),
		)
		response.Metadata.SourcesQueried = append(response.Metadata.SourcesQueried, sourceExternalFailed)
		return
	}

	results := make([]ManhwaSearchResult, 0, len(records))
	for i := range records {
		results = append(results, service.externalResult(&records[i]))
	}

	response.Results = results
	response.Pagination = SearchPagination{
		CurrentPage: params.Page,

		// The external path serves a single window; deep pagination stays a
		// local-store capability.
		TotalPages:   1,
		TotalResults: len(results),
	}
	response.Metadata.SourcesQueried = append(response.Metadata.SourcesQueried, sourceExternal)
}

// externalResult reduces an upstream record to the search-hit shape. External
// hits carry ID 0 until an administrator imports them.
func (service *Service) externalResult(record *upstream.Manga) ManhwaSearchResult {
	genres := make([]string, 0, len(record.Tags))
	for _, tag := range record.Tags {
		if tag.Group == "genre" {
			genres = append(genres, tag.Name)
		}
	}

	return ManhwaSearchResult{
		ID:            0,
		Title:         record.Title,
		CoverThumb:    service.upstream.CoverURLs(record.UpstreamID, record.CoverFilename).Thumb,
		Synopsis:      truncateSynopsis(record.Synopsis),
		Status:        record.Status,
		TotalChapters: record.TotalChapters,
		Genres:        genres,
	}
}

/*
GetByID returns one record, preferring the entity cache.

Description: A cache hit returns immediately; if the cached record is stale it
additionally schedules a background refresh so the next read observes fresh
data. A miss loads through the coalescer. When the caller forces a refresh, or
the loaded row itself is stale, the synchronisation runs inline; a failed
inline sync logs and degrades to the stale row rather than failing the read.

Parameters:
  - context: context.Context
  - id: int64
  - forceRefresh: bool (Bypass the cache and synchronise before returning)

Returns:
  - *Manhwa: The current record
  - error: NotFound when the identifier is unknown
*/
func (service *Service) GetByID(context context.Context, id int64, forceRefresh bool) (*Manhwa, error) {
	key := cache.EntityKey(id)

	// Cache Consultation
	if !forceRefresh {
		if cached, found := cache.GetTyped[*Manhwa](context, service.cache, cache.TierEntity, key); found {
			if service.shouldRefresh(cached) && service.scheduler != nil {
				service.scheduler.SyncNow(cached.ID, cached.UpstreamID)
			}
			return cached, nil
		}
	}

	// Coalesced Store Load, detached for the same reason as Search: the
	// producer answers every waiter, not just this caller.
	detached := detach(context)
	record, err := service.records.Do(context, key, func() (*Manhwa, error) {
		return service.store.FindByID(detached, id)
	})
	if err != nil {
		return nil, err
	}

	// Inline Synchronisation
	if (forceRefresh || service.shouldRefresh(record)) && record.UpstreamID != "" {
		if _, syncErr := service.SyncOne(context, record.ID, record.UpstreamID); syncErr != nil {
			// The stale row still answers the read; the failure is persisted
			// as sync state and retried by the scheduler.
			service.log.Warn("inline_refresh_failed",
				slog.Int64("id", record.ID),
				slog.String("error", syncErr.Error()),
			)
		} else if fresh, reloadErr := service.store.FindByID(context, id); reloadErr == nil {
			record = fresh
		}
	}

	cache.SetTyped(context, service.cache, cache.TierEntity, key, record)
	return record, nil
}

/*
BulkGet resolves a batch of identifiers in one store round-trip.

Description: Every identifier is tried against the entity cache first; the
misses go to the store as a single query. Identifiers that exist nowhere are
reported back rather than treated as errors.

Parameters:
  - context: context.Context
  - ids: []int64

Returns:
  - map[int64]*Manhwa: The records found, keyed by identifier
  - []int64: Identifiers that do not exist
  - error: Database retrieval failures
*/
func (service *Service) BulkGet(context context.Context, ids []int64) (map[int64]*Manhwa, []int64, error) {
	entities := make(map[int64]*Manhwa, len(ids))
	misses := make([]int64, 0, len(ids))

	// Cache Sweep
	for _, id := range ids {
		if _, seen := entities[id]; seen {
			continue
		}
		if cached, found := cache.GetTyped[*Manhwa](context, service.cache, cache.TierEntity, cache.EntityKey(id)); found {
			entities[id] = cached
		} else {
			misses = append(misses, id)
		}
	}

	// Single Batched Load
	if len(misses) > 0 {
		records, err := service.store.FindByIDs(context, misses)
		if err != nil {
			return nil, nil, err
		}
		for _, record := range records {
			entities[record.ID] = record
			cache.SetTyped(context, service.cache, cache.TierEntity, cache.EntityKey(record.ID), record)
		}
	}

	// Absentee Reconciliation
	notFound := make([]int64, 0)
	for _, id := range ids {
		if _, found := entities[id]; !found {
			notFound = append(notFound, id)
		}
	}

	return entities, notFound, nil
}

// # Write Path

/*
Create persists a locally curated record.

Description: Every referenced genre slug must already exist; unknown slugs
reject the whole request. The record is inserted with local provenance and a
current sync status, and the search tier is invalidated so no result page
predating the write survives.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Manhwa: The inserted record including its genres
  - error: ValidationError or BadInput on rejected input
*/
func (service *Service) Create(context context.Context, input CreateInput) (*Manhwa, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	// Genre Resolution
	genreIDs, err := service.resolveGenres(context, input.Genres)
	if err != nil {
		return nil, err
	}

	record := &Manhwa{
		DataSource: SourceLocal,
		TitleData:  input.TitleData,
		Synopsis:   input.Synopsis,
		Status:     input.Status,
		Publisher:  input.Publisher,

		StartYear:       input.StartYear,
		EndYear:         input.EndYear,
		TotalChapters:   input.TotalChapters,
		SpecialChapters: input.SpecialChapters,

		SyncStatus: SyncCurrent,
	}

	id, err := service.store.Insert(context, record, genreIDs)
	if err != nil {
		return nil, err
	}

	service.invalidateSearches(context)
	service.log.Info("manhwa_created",
		slog.Int64("id", id),
		slog.String("title", input.TitleData.Primary),
	)

	return service.store.FindByID(context, id)
}

/*
Import pulls one upstream record into the local catalogue.

Description: An identifier already linked to a local record is rejected. The
upstream record is fetched, transformed, and inserted with upstream
provenance, derived cover URLs, and a fresh sync timestamp. Genre linking is
not part of the import; the transform carries the upstream tags for display
only.

Parameters:
  - context: context.Context
  - upstreamID: string (UUID-shaped upstream identifier)

Returns:
  - *Manhwa: The imported record
  - error: BadInput when already imported, NotFound when unknown upstream
*/
func (service *Service) Import(context context.Context, upstreamID string) (*Manhwa, error) {

	// Duplicate Guard
	existing, err := service.store.FindByUpstreamID(context, upstreamID)
	if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.BadInput("This title is already imported")
	}

	// Upstream Fetch & Transform
	partial, err := service.upstream.GetManga(context, upstreamID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := recordFromUpstream(partial)
	record.Covers = coversFromUpstream(service.upstream.CoverURLs(partial.UpstreamID, partial.CoverFilename))
	record.LastSyncedAt = &now
	record.SyncStatus = SyncCurrent

	id, err := service.store.Insert(context, record, nil)
	if err != nil {
		return nil, err
	}

	service.invalidateSearches(context)
	service.log.Info("manhwa_imported",
		slog.Int64("id", id),
		slog.String("upstream_id", upstreamID),
	)

	return service.store.FindByID(context, id)
}

/*
SyncOne refreshes one record from the upstream catalogue.

Description: The upstream record is fetched, transformed, merged with fresh
cover URLs and sync bookkeeping, and written through the store, which advances
the version counter. The entity key and the whole search tier are invalidated
after the write commits. Any failure marks the record's sync status as failed
and surfaces as a SyncFailed error; an upstream deletion and a rate-limit
rejection keep their specific reasons.

Parameters:
  - context: context.Context
  - id: int64 (Local identifier)
  - upstreamID: string (Upstream identifier)

Returns:
  - *SyncResult: Outcome, message, and the new sync timestamp on success
  - error: SyncFailed wrapping the underlying cause
*/
func (service *Service) SyncOne(context context.Context, id int64, upstreamID string) (*SyncResult, error) {
	partial, err := service.upstream.GetManga(context, upstreamID)
	if err != nil {
		// A NotFound here is the upstream entity vanishing; a local-store
		// NotFound below must not borrow this message.
		message := syncFailedMessage
		switch {
		case apperr.Is(err, apperr.CodeNotFound):
			message = "Manga no longer exists on Upstream"
		case apperr.Is(err, apperr.CodeRateLimited):
			// Keep the limiter's reason so operators see which window closed.
			message = err.Error()
		}
		return service.failSync(context, id, err, message)
	}

	now := time.Now().UTC()
	patch := recordFromUpstream(partial)
	patch.Covers = coversFromUpstream(service.upstream.CoverURLs(partial.UpstreamID, partial.CoverFilename))
	patch.LastSyncedAt = &now
	patch.SyncStatus = SyncCurrent

	if err := service.store.Update(context, id, patch); err != nil {
		return service.failSync(context, id, err, syncFailedMessage)
	}

	// Invalidation strictly after the committed write
	service.cache.Delete(context, cache.TierEntity, cache.EntityKey(id))
	service.invalidateSearches(context)

	service.log.Info("sync_success", slog.Int64("id", id))
	return &SyncResult{
		Status:       SyncResultSuccess,
		Message:      "Synchronised",
		LastSyncedAt: &now,
	}, nil
}

// syncFailedMessage is the generic outcome message; the fetch path overrides
// it with the specific upstream reason.
const syncFailedMessage = "Synchronisation failed"

// failSync persists the failed sync status and wraps the cause under the
// caller-chosen message. The writeback is best-effort: a second failure is
// logged, not propagated, so the original cause stays visible.
func (service *Service) failSync(context context.Context, id int64, cause error, message string) (*SyncResult, error) {
	if err := service.store.MarkSyncFailed(context, id); err != nil {
		service.log.Error("sync_status_writeback_failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	}

	service.log.Warn("sync_attempt_failed",
		slog.Int64("id", id),
		slog.String("error", cause.Error()),
	)

	return &SyncResult{Status: SyncResultFailed, Message: message},
		apperr.SyncFailed(message, cause)
}

/*
Refresh synchronises one record by local identifier.

Description: Admin-facing synchronous path. The record is loaded to resolve
its upstream link; locally curated records have nothing to synchronise
against and are rejected.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *SyncResult: The synchronisation outcome
  - error: NotFound, BadInput for local records, or SyncFailed
*/
func (service *Service) Refresh(context context.Context, id int64) (*SyncResult, error) {
	record, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if record.UpstreamID == "" {
		return nil, apperr.BadInput("Locally curated records do not synchronise")
	}
	return service.SyncOne(context, id, record.UpstreamID)
}

/*
FindUpstreamLink resolves the upstream identifier of a local record.

Description: Used by the sync admin surface, which accepts bare local
identifiers. Locally curated records carry no link and are rejected.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - string: The upstream identifier
  - error: NotFound, or BadInput for locally curated records
*/
func (service *Service) FindUpstreamLink(context context.Context, id int64) (string, error) {
	record, err := service.store.FindByID(context, id)
	if err != nil {
		return "", err
	}
	if record.UpstreamID == "" {
		return "", apperr.BadInput("Locally curated records do not synchronise")
	}
	return record.UpstreamID, nil
}

// # Discovery Extras

/*
Random draws one random record from the upstream catalogue.

Parameters:
  - context: context.Context

Returns:
  - *ManhwaSearchResult: The record in the external-hit shape (ID 0)
  - error: RateLimited or a normalised upstream failure
*/
func (service *Service) Random(context context.Context) (*ManhwaSearchResult, error) {
	record, err := service.upstream.GetRandom(context)
	if err != nil {
		return nil, err
	}
	result := service.externalResult(record)
	return &result, nil
}

/*
ListGenres returns the genre taxonomy, name ascending, through the tag tier.

Parameters:
  - context: context.Context

Returns:
  - []Genre: Every genre
  - error: Database retrieval failures
*/
func (service *Service) ListGenres(context context.Context) ([]Genre, error) {
	if cached, found := cache.GetTyped[[]Genre](context, service.cache, cache.TierTag, cache.GenresKey()); found {
		return cached, nil
	}

	genres, err := service.store.ListAllGenres(context)
	if err != nil {
		return nil, err
	}

	cache.SetTyped(context, service.cache, cache.TierTag, cache.GenresKey(), genres)
	return genres, nil
}

/*
CreateGenre adds a genre to the taxonomy.

Description: The slug is generated from the name when absent. The cached
genre list is invalidated so the next read observes the addition.

Parameters:
  - context: context.Context
  - input: GenreInput

Returns:
  - *Genre: The created genre
  - error: ValidationError or Conflict on a duplicate slug
*/
func (service *Service) CreateGenre(context context.Context, input GenreInput) (*Genre, error) {
	if err := validateGenre(input); err != nil {
		return nil, err
	}

	genre := Genre{Name: strings.TrimSpace(input.Name), Slug: input.Slug}
	if genre.Slug == "" {
		genre.Slug = slug.From(genre.Name)
	}

	created, err := service.store.CreateGenre(context, genre)
	if err != nil {
		return nil, err
	}

	service.cache.Delete(context, cache.TierTag, cache.GenresKey())
	service.log.Info("genre_created", slog.String("slug", created.Slug))
	return created, nil
}

// # Cache Administration

// CacheStats returns the per-tier hit/miss and occupancy snapshot.
func (service *Service) CacheStats() map[string]cache.Stats {
	return service.cache.Stats()
}

// ClearCache removes every key containing pattern from every tier and returns
// the total number of local removals.
func (service *Service) ClearCache(context context.Context, pattern string) int {
	removed := 0
	for _, tier := range []cache.Tier{cache.TierEntity, cache.TierSearch, cache.TierTag} {
		removed += service.cache.DeleteMatching(context, tier, pattern)
	}
	return removed
}

// # Internals

// detach severs shared in-flight work from the request that initiated it.
// Values survive for logging and tracing; cancellation does not, so a
// coalesced producer always runs to completion for its waiters.
func detach(parent context.Context) context.Context {
	return context.WithoutCancel(parent)
}

// shouldRefresh reports whether a record is due for an upstream refresh:
// upstream-sourced, and either never synced or past the staleness horizon.
func (service *Service) shouldRefresh(record *Manhwa) bool {
	if record.DataSource != SourceUpstream || record.UpstreamID == "" {
		return false
	}
	return record.LastSyncedAt == nil || time.Since(*record.LastSyncedAt) > constants.SyncStaleAfter
}

// searchKey derives the canonical search-tier key for the given parameters.
func (service *Service) searchKey(params SearchParams) string {
	statuses := slice.Map(params.Filter.Statuses, func(status Status) string { return string(status) })
	sort.Strings(statuses)

	return cache.SearchKey(cache.SearchKeyInput{
		Query:           params.Query,
		Genres:          params.Filter.GenreSlugs,
		Status:          strings.Join(statuses, ","),
		YearStart:       params.Filter.YearStart,
		YearEnd:         params.Filter.YearEnd,
		Sort:            params.Filter.Sort,
		Page:            params.Page,
		Limit:           params.Limit,
		IncludeExternal: params.IncludeExternal,
	})
}

// invalidateSearches drops every cached search page after a catalogue write.
func (service *Service) invalidateSearches(context context.Context) {
	service.cache.DeleteMatching(context, cache.TierSearch, "search:")
}

// resolveGenres maps genre slugs to identifiers, rejecting unknowns.
func (service *Service) resolveGenres(context context.Context, slugs []string) ([]int32, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	genres, err := service.store.ListGenresBySlug(context, slugs)
	if err != nil {
		return nil, err
	}

	if len(genres) != len(slugs) {
		known := make(map[string]bool, len(genres))
		for _, genre := range genres {
			known[genre.Slug] = true
		}
		unknown := slice.Filter(slugs, func(s string) bool { return !known[s] })
		return nil, apperr.BadInput("Unknown genres: " + strings.Join(unknown, ", "))
	}

	return slice.Map(genres, func(genre Genre) int32 { return genre.ID }), nil
}

// resolveTagIDs translates local genre slugs into upstream tag identifiers
// through the cached tag dictionary. Unknown slugs are skipped: the external
// search degrades to a broader result set rather than failing.
func (service *Service) resolveTagIDs(context context.Context, slugs []string) []string {
	if len(slugs) == 0 {
		return nil
	}

	dictionary := service.tagDictionary(context)
	ids := make([]string, 0, len(slugs))
	for _, genreSlug := range slugs {
		name := strings.ToLower(strings.ReplaceAll(genreSlug, "-", " "))
		if id, found := dictionary[name]; found {
			ids = append(ids, id)
		}
	}
	return ids
}

// tagDictionary returns the upstream tag dictionary keyed by lower-case name,
// cached in the tag tier. A fetch failure yields an empty dictionary.
func (service *Service) tagDictionary(context context.Context) map[string]string {
	if cached, found := cache.GetTyped[map[string]string](context, service.cache, cache.TierTag, cache.TagDictionaryKey()); found {
		return cached
	}

	tags := service.upstream.ListTags(context)
	dictionary := make(map[string]string, len(tags))
	for _, tag := range tags {
		dictionary[strings.ToLower(tag.Name)] = tag.ID
	}

	// An empty dictionary is not cached, so a transient upstream failure does
	// not blind genre mapping for a whole TTL window.
	if len(dictionary) > 0 {
		cache.SetTyped(context, service.cache, cache.TierTag, cache.TagDictionaryKey(), dictionary)
	}
	return dictionary
}

// recordFromUpstream maps a transformed upstream record onto the domain
// entity shape shared by Import and SyncOne.
func recordFromUpstream(partial *upstream.Manga) *Manhwa {
	record := &Manhwa{
		UpstreamID: partial.UpstreamID,
		DataSource: SourceUpstream,
		TitleData: TitleData{
			Primary: partial.Title,
			Alternatives: slice.Map(partial.AltTitles, func(alt upstream.AltTitle) AltTitle {
				return AltTitle{Language: alt.Language, Title: alt.Title}
			}),
			Romanized: partial.TitleRomanized,
		},
		Synopsis:      partial.Synopsis,
		Status:        Status(partial.Status),
		Publisher:     partial.Publisher,
		TotalChapters: partial.TotalChapters,
	}

	if partial.StartYear > 0 {
		year := int16(partial.StartYear)
		record.StartYear = &year
	}
	return record
}

// coversFromUpstream converts the client's cover URL set to the domain shape.
func coversFromUpstream(covers upstream.Covers) Covers {
	return Covers{Thumb: covers.Thumb, Medium: covers.Medium, Large: covers.Large}
}

// validateCreate checks the create payload against the entity constraints.
func validateCreate(input CreateInput) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldTitlePrimary, input.TitleData.Primary).
		MaxLen(FieldTitlePrimary, input.TitleData.Primary, 500).
		MinLen(FieldSynopsis, input.Synopsis, 10).
		OneOf(FieldStatus, string(input.Status),
			string(StatusOngoing), string(StatusCompleted), string(StatusHiatus), string(StatusCancelled)).
		Custom(FieldGenres, len(input.Genres) > 10, "at most 10 genres may be attached")

	if input.StartYear != nil && input.EndYear != nil {
		validator.Custom(FieldEndYear, *input.EndYear < *input.StartYear, "must not precede startYear")
	}

	return validator.Err()
}

// validateGenre checks the genre payload.
func validateGenre(input GenreInput) error {
	validator := &validate.Validator{}
	validator.
		Required("name", input.Name).
		MaxLen("name", input.Name, 100)

	if input.Slug != "" {
		validator.Slug("slug", input.Slug)
	}
	return validator.Err()
}
