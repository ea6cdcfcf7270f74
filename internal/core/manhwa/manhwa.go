// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package manhwa defines the core domain entities for the Manhwaru catalogue.

It manages the lifecycle of Korean serialised publications, fusing records
curated locally with records imported from the external catalogue and kept
fresh by the background syncer.

Core Responsibility:

  - Catalogue: Defines publication statuses (Ongoing, Completed) and record
    provenance (Local, Upstream).
  - Discovery: Manages genres, multilingual titles, and ranked full-text search.
  - Synchronisation: Tracks per-record sync state (Current, Outdated, Failed)
    and the monotonic version counter advanced by each refresh.

This package acts as the source of truth for all content-related data models.
*/
package manhwa

import "time"

// # Domain Enums

// Status represents the publication status of a manhwa.
type Status string

const (
	// StatusOngoing indicates the publication is actively updating.
	StatusOngoing Status = "ongoing"

	// StatusCompleted indicates no further chapters are expected.
	StatusCompleted Status = "completed"

	// StatusHiatus indicates the publication is paused indefinitely.
	StatusHiatus Status = "hiatus"

	// StatusCancelled indicates the publication has been permanently discontinued.
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case
		StatusOngoing,
		StatusCompleted,
		StatusHiatus,
		StatusCancelled:
		return true
	}
	return false
}

// DataSource identifies where a record originates and whether it synchronises.
type DataSource string

const (
	// SourceLocal marks a record curated by hand. It never synchronises and
	// carries no upstream identifier.
	SourceLocal DataSource = "local"

	// SourceUpstream marks a record imported from the external catalogue and
	// refreshed by the syncer.
	SourceUpstream DataSource = "upstream"
)

// IsValid reports whether d is a recognised [DataSource] value.
func (d DataSource) IsValid() bool {
	switch d {
	case SourceLocal, SourceUpstream:
		return true
	}
	return false
}

// SyncStatus tracks the freshness of an upstream-backed record.
type SyncStatus string

const (
	// SyncCurrent indicates the record reflects the upstream catalogue.
	SyncCurrent SyncStatus = "current"

	// SyncOutdated indicates the record is queued for a refresh.
	SyncOutdated SyncStatus = "outdated"

	// SyncFailed indicates the most recent refresh attempt did not complete.
	SyncFailed SyncStatus = "failed"
)

// IsValid reports whether s is a recognised [SyncStatus] value.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncCurrent, SyncOutdated, SyncFailed:
		return true
	}
	return false
}

// # Core Entities

// Manhwa is the central aggregate of the Manhwaru domain.
// It represents a single serialised publication in the catalogue.
type Manhwa struct {
	ID         int64      `json:"id"`
	UpstreamID string     `json:"upstreamId,omitempty"` // Empty for local-only records
	DataSource DataSource `json:"dataSource"`
	TitleData  TitleData  `json:"titleData"`
	Synopsis   string     `json:"synopsis"`
	Status     Status     `json:"status"`
	Publisher  string     `json:"publisher,omitempty"`

	StartYear       *int16 `json:"startYear,omitempty"`
	EndYear         *int16 `json:"endYear,omitempty"` // nil = still running or unknown
	TotalChapters   int    `json:"totalChapters,omitempty"`
	SpecialChapters int    `json:"specialChapters,omitempty"`

	Covers Covers  `json:"covers"`
	Genres []Genre `json:"genres,omitempty"`

	// # Sync Bookkeeping
	// Maintained by Import, SyncOne, and the syncer's failure writeback.
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"` // nil = never synchronised
	SyncStatus   SyncStatus `json:"syncStatus"`
	Version      int        `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TitleData groups every known title of a publication.
type TitleData struct {
	Primary      string     `json:"primary"`
	Alternatives []AltTitle `json:"alternatives,omitempty"`
	Romanized    string     `json:"romanized,omitempty"`
}

// AltTitle is a single alternative title in a given language.
type AltTitle struct {
	Language string `json:"languageCode"` // BCP-47 language tag (e.g. "ko", "ja", "en")
	Title    string `json:"title"`
}

// Genre represents a content classifier attached to a [Manhwa].
type Genre struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Covers holds the artwork URLs at the three served resolutions.
type Covers struct {
	Thumb  string `json:"thumb,omitempty"`
	Medium string `json:"medium,omitempty"`
	Large  string `json:"large,omitempty"`
}

// # Search & Filtering

// Sort orders for filtered list queries.
const (
	// SortUpdated orders by most recently updated first.
	SortUpdated = "updated"

	// SortCreated orders by most recently added first.
	SortCreated = "created"
)

// Filter holds the parameters for a filtered catalogue query.
//
// All dimensions are AND-composed. The year range matches any record whose
// publication interval overlaps it, treating a missing EndYear as open-ended.
type Filter struct {
	Statuses   []Status `json:"status,omitempty"`
	GenreSlugs []string `json:"genres,omitempty"`
	YearStart  int      `json:"year_start,omitempty"` // 0 = unbounded
	YearEnd    int      `json:"year_end,omitempty"`   // 0 = unbounded
	Sort       string   `json:"sort,omitempty"`       // [SortUpdated] or [SortCreated]
}

// RankedManhwa is a full-text search hit with its relevance rank.
type RankedManhwa struct {
	Manhwa
	Score float64 `json:"score"`
}

// SyncCandidate is a row selected by the syncer's outdated-record scan.
type SyncCandidate struct {
	ID         int64      `json:"id"`
	UpstreamID string     `json:"upstreamId"`
	SyncStatus SyncStatus `json:"syncStatus"`
}

// # Field Identifiers

// Global field names for validation and request parsing.
const (
	FieldID              = "id"
	FieldUpstreamID      = "upstreamId"
	FieldTitlePrimary    = "titleData.primary"
	FieldTitleAlternates = "titleData.alternatives"
	FieldSynopsis        = "synopsis"
	FieldStatus          = "status"
	FieldPublisher       = "publisher"
	FieldStartYear       = "startYear"
	FieldEndYear         = "endYear"
	FieldGenres          = "genres"
	FieldQuery           = "query"
	FieldPagination      = "pagination"
)
