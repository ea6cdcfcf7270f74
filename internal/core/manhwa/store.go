// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manhwa

import (
	"context"
	"time"
)

// # Catalogue Data Access

// Store defines the data access contract for the manhwa domain.
type Store interface {

	/*
		FindByID returns the manhwa with the given local identifier.

		Parameters:
		  - context: context.Context
		  - id: int64 (Store-assigned identifier)

		Returns:
		  - *Manhwa: The hydrated domain entity including genres
		  - error: NotFound if the record does not exist
	*/
	FindByID(context context.Context, id int64) (*Manhwa, error)

	/*
		FindByIDs returns every existing manhwa among the given identifiers.

		The result carries no ordering guarantee and silently omits missing
		identifiers; callers reconcile the absentees themselves.

		Parameters:
		  - context: context.Context
		  - ids: []int64

		Returns:
		  - []*Manhwa: The hydrated records found, in arbitrary order
		  - error: Database retrieval failures
	*/
	FindByIDs(context context.Context, ids []int64) ([]*Manhwa, error)

	/*
		FindByUpstreamID returns the manhwa linked to an external catalogue record.

		Parameters:
		  - context: context.Context
		  - upstreamID: string (UUID in the external catalogue)

		Returns:
		  - *Manhwa: The hydrated domain entity
		  - error: NotFound if no record carries the identifier
	*/
	FindByUpstreamID(context context.Context, upstreamID string) (*Manhwa, error)

	/*
		Insert persists a new manhwa and links its genres in one transaction.

		The store assigns the identifier, stamps creation timestamps, and
		starts the version counter at 1.

		Parameters:
		  - context: context.Context
		  - record: *Manhwa (Metadata and initial sync state)
		  - genreIDs: []int32 (Existing genres to link)

		Returns:
		  - int64: The assigned identifier
		  - error: Conflict on a duplicate upstream identifier
	*/
	Insert(context context.Context, record *Manhwa, genreIDs []int32) (int64, error)

	/*
		Update patches the mutable fields of an existing manhwa.

		Only non-zero fields of the patch are written. Every successful call
		advances the version counter and refreshes the update timestamp; the
		search vector is recomputed inside the same transaction.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - patch: *Manhwa (Modified attributes only)

		Returns:
		  - error: NotFound if the record does not exist
	*/
	Update(context context.Context, id int64, patch *Manhwa) error

	/*
		MarkSyncFailed records that the most recent refresh attempt failed.

		Only the sync status changes; content fields, the version counter, and
		the update timestamp stay untouched.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: NotFound if the record does not exist
	*/
	MarkSyncFailed(context context.Context, id int64) error

	// # Search

	/*
		FullTextSearch returns records ranked against a plain-text query.

		Results are ordered by descending relevance of the pre-built search
		vector, with filters AND-composed onto the match.

		Parameters:
		  - context: context.Context
		  - query: string (Sanitised search terms, non-empty)
		  - filter: Filter (Status, genre, and year-range criteria)
		  - limit: int
		  - offset: int

		Returns:
		  - []RankedManhwa: Matching records with relevance scores
		  - int: Total count of records matching query and filter
		  - error: Database retrieval failures
	*/
	FullTextSearch(context context.Context, query string, filter Filter, limit, offset int) ([]RankedManhwa, int, error)

	/*
		FilterSearch returns a filtered, browse-ordered page of records.

		Used when no query terms are present. Ordering follows Filter.Sort and
		defaults to most recently updated first.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Manhwa: Matching records
		  - int: Total count of records matching the filter
		  - error: Database retrieval failures
	*/
	FilterSearch(context context.Context, filter Filter, limit, offset int) ([]*Manhwa, int, error)

	// # Genres

	/*
		ListGenresBySlug resolves genre slugs to full genre records.

		Unknown slugs are omitted from the result rather than reported as
		errors; callers compare lengths to detect them.

		Parameters:
		  - context: context.Context
		  - slugs: []string

		Returns:
		  - []Genre: The genres found, in slug order of the input
		  - error: Database retrieval failures
	*/
	ListGenresBySlug(context context.Context, slugs []string) ([]Genre, error)

	/*
		ListAllGenres returns the full genre taxonomy ordered by name.

		Parameters:
		  - context: context.Context

		Returns:
		  - []Genre: Every genre, name ascending
		  - error: Database retrieval failures
	*/
	ListAllGenres(context context.Context) ([]Genre, error)

	/*
		CreateGenre adds a genre to the taxonomy.

		Parameters:
		  - context: context.Context
		  - genre: Genre (Name and slug; the identifier is store-assigned)

		Returns:
		  - *Genre: The created genre including its identifier
		  - error: Conflict on a duplicate slug
	*/
	CreateGenre(context context.Context, genre Genre) (*Genre, error)

	// # Sync Support

	/*
		ListSyncCandidates returns upstream-backed records due for a refresh.

		A record qualifies when it has never synchronised, when its last sync
		predates staleBefore, or when its previous sync failed. Failed records
		sort first, then the longest-unsynced.

		Parameters:
		  - context: context.Context
		  - staleBefore: time.Time (Freshness horizon)
		  - limit: int (Scan cap)

		Returns:
		  - []SyncCandidate: Identifier, upstream link, and sync state per row
		  - error: Database retrieval failures
	*/
	ListSyncCandidates(context context.Context, staleBefore time.Time, limit int) ([]SyncCandidate, error)
}
