// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manhwa

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
	"github.com/taibuivan/manhwaru/pkg/pagination"
	"github.com/taibuivan/manhwaru/pkg/slice"
)

// synopsisPreviewLimit bounds the synopsis carried by search results.
const synopsisPreviewLimit = 200

// Source labels reported in search metadata.
const (
	sourceLocal          = "local"
	sourceExternal       = "external"
	sourceExternalFailed = "external (failed)"
)

// # Search Contracts

// SearchParams holds the input of one catalogue search.
type SearchParams struct {
	Query           string `json:"query"`
	Filter          Filter `json:"filters"`
	Page            int    `json:"page"`
	Limit           int    `json:"limit"`
	IncludeExternal bool   `json:"includeExternal"`
}

// SearchResponse is the transport-ready result of a catalogue search.
type SearchResponse struct {
	Results    []ManhwaSearchResult `json:"results"`
	Pagination SearchPagination     `json:"pagination"`
	Metadata   SearchMetadata       `json:"metadata"`
}

// SearchPagination describes the page window of a [SearchResponse].
type SearchPagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

// SearchMetadata carries provenance and timing of a [SearchResponse].
type SearchMetadata struct {
	SourcesQueried []string `json:"sourcesQueried"`
	QueryTimeMS    int64    `json:"queryTime_ms"`
}

// ManhwaSearchResult is a single search hit reduced to its preview fields.
// External hits carry ID 0 until they are imported.
type ManhwaSearchResult struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	CoverThumb    string   `json:"coverThumb,omitempty"`
	Synopsis      string   `json:"synopsis"`
	Status        string   `json:"status"`
	TotalChapters int      `json:"totalChapters,omitempty"`
	Genres        []string `json:"genres"`
	Score         float64  `json:"score,omitempty"`
}

// # Search Engine

// SearchEngine answers catalogue queries from the local store.
// It ranks full-text matches and falls back to browse ordering when no query
// terms are present.
type SearchEngine struct {
	store Store
}

// NewSearchEngine constructs a [SearchEngine] over the given store.
func NewSearchEngine(store Store) *SearchEngine {
	return &SearchEngine{store: store}
}

/*
FullTextSearch runs one local catalogue search.

Description: The query is sanitised first. Non-empty queries rank against the
search vector and carry relevance scores; empty queries degrade to a filtered
browse ordered by most recent update. Both paths share the same filter
dimensions and pagination model.

Parameters:
  - context: context.Context
  - params: SearchParams (Query, filters, paging)

Returns:
  - *SearchResponse: Hits, page window, and metadata with local provenance
  - error: SearchFailed wrapping store errors
*/
func (engine *SearchEngine) FullTextSearch(context context.Context, params SearchParams) (*SearchResponse, error) {

	// Timing starts before any store work
	start := time.Now()

	// Paging Normalisation
	page, limit := normalisePaging(params.Page, params.Limit)
	offset := (page - 1) * limit

	// Query Sanitisation
	query := sanitizeQuery(params.Query)

	// Branch Selection: ranked match or filtered browse
	var results []ManhwaSearchResult
	var total int

	if query != "" {
		hits, totalCount, err := engine.store.FullTextSearch(context, query, params.Filter, limit, offset)
		if err != nil {
			return nil, apperr.SearchFailed(err)
		}

		results = make([]ManhwaSearchResult, 0, len(hits))
		for i := range hits {
			results = append(results, newSearchResult(&hits[i].Manhwa, hits[i].Score))
		}
		total = totalCount
	} else {
		filter := params.Filter
		if filter.Sort == "" {
			filter.Sort = SortUpdated
		}

		records, totalCount, err := engine.store.FilterSearch(context, filter, limit, offset)
		if err != nil {
			return nil, apperr.SearchFailed(err)
		}

		results = make([]ManhwaSearchResult, 0, len(records))
		for _, record := range records {
			results = append(results, newSearchResult(record, 0))
		}
		total = totalCount
	}

	// Response Assembly
	meta := pagination.NewMeta(page, limit, total)
	return &SearchResponse{
		Results: results,
		Pagination: SearchPagination{
			CurrentPage:  page,
			TotalPages:   meta.TotalPages,
			TotalResults: total,
		},
		Metadata: SearchMetadata{
			SourcesQueried: []string{sourceLocal},
			QueryTimeMS:    time.Since(start).Milliseconds(),
		},
	}, nil
}

/*
Trending returns the most recently updated ongoing publications.

Parameters:
  - context: context.Context
  - limit: int (Clamped to the shared page bounds)

Returns:
  - *SearchResponse: First page of trending records
  - error: SearchFailed wrapping store errors
*/
func (engine *SearchEngine) Trending(context context.Context, limit int) (*SearchResponse, error) {
	filter := Filter{
		Statuses: []Status{StatusOngoing},
		Sort:     SortUpdated,
	}
	return engine.browse(context, filter, limit)
}

/*
RecentlyAdded returns the newest catalogue entries.

Parameters:
  - context: context.Context
  - limit: int (Clamped to the shared page bounds)

Returns:
  - *SearchResponse: First page of recently created records
  - error: SearchFailed wrapping store errors
*/
func (engine *SearchEngine) RecentlyAdded(context context.Context, limit int) (*SearchResponse, error) {
	return engine.browse(context, Filter{Sort: SortCreated}, limit)
}

// browse serves the single-page discovery lists.
func (engine *SearchEngine) browse(context context.Context, filter Filter, limit int) (*SearchResponse, error) {
	start := time.Now()

	_, capped := normalisePaging(1, limit)

	records, total, err := engine.store.FilterSearch(context, filter, capped, 0)
	if err != nil {
		return nil, apperr.SearchFailed(err)
	}

	results := make([]ManhwaSearchResult, 0, len(records))
	for _, record := range records {
		results = append(results, newSearchResult(record, 0))
	}

	meta := pagination.NewMeta(1, capped, total)
	return &SearchResponse{
		Results: results,
		Pagination: SearchPagination{
			CurrentPage:  1,
			TotalPages:   meta.TotalPages,
			TotalResults: total,
		},
		Metadata: SearchMetadata{
			SourcesQueried: []string{sourceLocal},
			QueryTimeMS:    time.Since(start).Milliseconds(),
		},
	}, nil
}

// # Helpers

// sanitizeQuery strips syntax the text-search parser would interpret: quotes
// and backslashes, and token-leading hyphens, which websearch_to_tsquery
// reads as term negation. Interior hyphens ("sci-fi") survive, and the
// surviving terms are re-joined single-spaced so equal queries share one
// cache key.
func sanitizeQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '\\':
			return -1
		}
		return r
	}, query)

	terms := make([]string, 0, 4)
	for _, term := range strings.Fields(cleaned) {
		if term = strings.TrimLeft(term, "-"); term != "" {
			terms = append(terms, term)
		}
	}
	return strings.Join(terms, " ")
}

// normalisePaging clamps a page/limit pair to the shared bounds.
func normalisePaging(page, limit int) (int, int) {
	if page < 1 {
		page = pagination.DefaultPage
	}
	if limit < 1 {
		limit = pagination.DefaultLimit
	}
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}
	return page, limit
}

// newSearchResult reduces a full record to its search preview.
func newSearchResult(record *Manhwa, score float64) ManhwaSearchResult {
	return ManhwaSearchResult{
		ID:            record.ID,
		Title:         record.TitleData.Primary,
		CoverThumb:    record.Covers.Thumb,
		Synopsis:      truncateSynopsis(record.Synopsis),
		Status:        string(record.Status),
		TotalChapters: record.TotalChapters,
		Genres:        slice.Map(record.Genres, func(genre Genre) string { return genre.Name }),
		Score:         score,
	}
}

// truncateSynopsis bounds a synopsis to the preview length without splitting
// a multi-byte character.
func truncateSynopsis(synopsis string) string {
	if utf8.RuneCountInString(synopsis) <= synopsisPreviewLimit {
		return synopsis
	}
	runes := []rune(synopsis)
	return string(runes[:synopsisPreviewLimit]) + "…"
}
