// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
PostgreSQL implementation for the catalogue's data access.

It utilizes advanced Postgres features to deliver a high-performance discovery
experience:
  - Full-Text Search: Ranks hits with 'ts_rank' over a GIN-indexed vector that
    weights the primary title above the synopsis.
  - JSON Aggregation: Retrieves associated genres in a single round-trip.
  - Window Functions: Calculates total result counts without a second query.
  - ACID Transactions: Ensures atomicity when inserting records and their
    genre links.
*/
package manhwa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
	"github.com/taibuivan/manhwaru/internal/platform/database/schema"
	"github.com/taibuivan/manhwaru/internal/platform/dberr"
)

// openEndedYear stands in for a missing end year in range comparisons, so a
// still-running publication overlaps every future window.
const openEndedYear = 32767

// # PostgreSQL Repository

// postgresStore implements the [Store] interface using pgx.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed manhwa store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

/*
FindByID retrieves a manhwa record by its primary key.

Description: Performs a single-row lookup to retrieve the full record. In
addition to the core fields, this query utilizes PostgreSQL's JSON aggregation
capabilities (json_agg and json_build_object) to retrieve the associated
genres in a single database round-trip, avoiding the classic N+1 problem.

Parameters:
  - context: context.Context for request scoping and cancellation tracking
  - id: int64 primary key of the target record

Returns:
  - *Manhwa: The fully hydrated entity (including genres), or nil if not found
  - error: apperr.NotFound if the record does not exist
*/
func (store *postgresStore) FindByID(context context.Context, id int64) (*Manhwa, error) {

	// Unified Lookup Query with JSON Genre Aggregation
	query := fmt.Sprintf(`
		SELECT
			m.%s, m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			COALESCE((
				SELECT json_agg(json_build_object('id', g.%s, 'name', g.%s, 'slug', g.%s) ORDER BY g.%s)
				FROM %s g
				JOIN %s mg ON g.%s = mg.%s
				WHERE mg.%s = m.%s
			), '[]') AS genres
		FROM %s m
		WHERE m.%s = $1
	`,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.DataSource,
		schema.CatalogManhwa.Title,
		schema.CatalogManhwa.AltTitles,
		schema.CatalogManhwa.TitleRomanized,
		schema.CatalogManhwa.Synopsis,
		schema.CatalogManhwa.Status,
		schema.CatalogManhwa.Publisher,
		schema.CatalogManhwa.StartYear,
		schema.CatalogManhwa.EndYear,
		schema.CatalogManhwa.TotalChapters,
		schema.CatalogManhwa.SpecialChapters,
		schema.CatalogManhwa.CoverThumb,
		schema.CatalogManhwa.CoverMedium,
		schema.CatalogManhwa.CoverLarge,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.Version,
		schema.CatalogManhwa.CreatedAt,
		schema.CatalogManhwa.UpdatedAt,
		schema.CatalogGenre.ID,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Table,
		schema.CatalogManhwaGenre.Table,
		schema.CatalogGenre.ID,
		schema.CatalogManhwaGenre.GenreID,
		schema.CatalogManhwaGenre.ManhwaID,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.ID,
	)

	// Record Scanning Pipeline
	record := &Manhwa{}
	var genresJSON []byte

	err := store.pool.QueryRow(context, query, id).Scan(
		&record.ID, &record.UpstreamID, &record.DataSource,
		&record.TitleData.Primary, &record.TitleData.Alternatives, &record.TitleData.Romanized,
		&record.Synopsis, &record.Status, &record.Publisher,
		&record.StartYear, &record.EndYear,
		&record.TotalChapters, &record.SpecialChapters,
		&record.Covers.Thumb, &record.Covers.Medium, &record.Covers.Large,
		&record.LastSyncedAt, &record.SyncStatus, &record.Version,
		&record.CreatedAt, &record.UpdatedAt,
		&genresJSON,
	)

	// Result Validation and Error Handling
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Manhwa")
		}
		return nil, fmt.Errorf("postgres: failed to find manhwa by id: %w", err)
	}

	// Genre Hydration
	if err := json.Unmarshal(genresJSON, &record.Genres); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal genres: %w", err)
	}

	return record, nil
}

/*
FindByIDs retrieves every existing record among the given primary keys.

Description: Resolves the whole batch with a single ANY($1) query instead of a
round-trip per identifier. Missing identifiers are silently absent from the
result; the caller reconciles them.

Parameters:
  - context: context.Context
  - ids: []int64 (Primary keys, order-insensitive)

Returns:
  - []*Manhwa: Hydrated records found, in arbitrary order
  - error: Database execution errors
*/
func (store *postgresStore) FindByIDs(context context.Context, ids []int64) ([]*Manhwa, error) {

	// Empty Batch Check
	if len(ids) == 0 {
		return []*Manhwa{}, nil
	}

	// Batched Lookup Query with JSON Genre Aggregation
	query := fmt.Sprintf(`
		SELECT
			m.%s, m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			COALESCE((
				SELECT json_agg(json_build_object('id', g.%s, 'name', g.%s, 'slug', g.%s) ORDER BY g.%s)
				FROM %s g
				JOIN %s mg ON g.%s = mg.%s
				WHERE mg.%s = m.%s
			), '[]') AS genres
		FROM %s m
		WHERE m.%s = ANY($1)
	`,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.DataSource,
		schema.CatalogManhwa.Title,
		schema.CatalogManhwa.AltTitles,
		schema.CatalogManhwa.TitleRomanized,
		schema.CatalogManhwa.Synopsis,
		schema.CatalogManhwa.Status,
		schema.CatalogManhwa.Publisher,
		schema.CatalogManhwa.StartYear,
		schema.CatalogManhwa.EndYear,
		schema.CatalogManhwa.TotalChapters,
		schema.CatalogManhwa.SpecialChapters,
		schema.CatalogManhwa.CoverThumb,
		schema.CatalogManhwa.CoverMedium,
		schema.CatalogManhwa.CoverLarge,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.Version,
		schema.CatalogManhwa.CreatedAt,
		schema.CatalogManhwa.UpdatedAt,
		schema.CatalogGenre.ID,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Table,
		schema.CatalogManhwaGenre.Table,
		schema.CatalogGenre.ID,
		schema.CatalogManhwaGenre.GenreID,
		schema.CatalogManhwaGenre.ManhwaID,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.ID,
	)

	// Query Execution
	rows, err := store.pool.Query(context, query, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to find manhwa batch: %w", err)
	}
	defer rows.Close()

	// Row Iteration and Entity Hydration
	var records []*Manhwa
	for rows.Next() {
		record := &Manhwa{}
		var genresJSON []byte

		err := rows.Scan(
			&record.ID, &record.UpstreamID, &record.DataSource,
			&record.TitleData.Primary, &record.TitleData.Alternatives, &record.TitleData.Romanized,
			&record.Synopsis, &record.Status, &record.Publisher,
			&record.StartYear, &record.EndYear,
			&record.TotalChapters, &record.SpecialChapters,
			&record.Covers.Thumb, &record.Covers.Medium, &record.Covers.Large,
			&record.LastSyncedAt, &record.SyncStatus, &record.Version,
			&record.CreatedAt, &record.UpdatedAt,
			&genresJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan manhwa: %w", err)
		}

		if err := json.Unmarshal(genresJSON, &record.Genres); err != nil {
			return nil, fmt.Errorf("postgres: failed to unmarshal genres: %w", err)
		}

		records = append(records, record)
	}

	return records, nil
}

/*
FindByUpstreamID retrieves the record linked to an external catalogue entry.

Description: Used by the import path to detect records that already exist
locally, and by sync flows that address records through their external
identity. Operates identically to FindByID apart from the lookup column.

Parameters:
  - context: context.Context
  - upstreamID: string (External catalogue UUID)

Returns:
  - *Manhwa: Completely hydrated domain entity
  - error: apperr.NotFound when no record carries the identifier
*/
func (store *postgresStore) FindByUpstreamID(context context.Context, upstreamID string) (*Manhwa, error) {

	// Upstream Identity Lookup with JSON Genre Aggregation
	query := fmt.Sprintf(`
		SELECT
			m.%s, m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			COALESCE((
				SELECT json_agg(json_build_object('id', g.%s, 'name', g.%s, 'slug', g.%s) ORDER BY g.%s)
				FROM %s g
				JOIN %s mg ON g.%s = mg.%s
				WHERE mg.%s = m.%s
			), '[]') AS genres
		FROM %s m
		WHERE m.%s = $1
	`,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.DataSource,
		schema.CatalogManhwa.Title,
		schema.CatalogManhwa.AltTitles,
		schema.CatalogManhwa.TitleRomanized,
		schema.CatalogManhwa.Synopsis,
		schema.CatalogManhwa.Status,
		schema.CatalogManhwa.Publisher,
		schema.CatalogManhwa.StartYear,
		schema.CatalogManhwa.EndYear,
		schema.CatalogManhwa.TotalChapters,
		schema.CatalogManhwa.SpecialChapters,
		schema.CatalogManhwa.CoverThumb,
		schema.CatalogManhwa.CoverMedium,
		schema.CatalogManhwa.CoverLarge,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.Version,
		schema.CatalogManhwa.CreatedAt,
		schema.CatalogManhwa.UpdatedAt,
		schema.CatalogGenre.ID,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Table,
		schema.CatalogManhwaGenre.Table,
		schema.CatalogGenre.ID,
		schema.CatalogManhwaGenre.GenreID,
		schema.CatalogManhwaGenre.ManhwaID,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.UpstreamID,
	)

	// Record Scanning Pipeline
	record := &Manhwa{}
	var genresJSON []byte

	err := store.pool.QueryRow(context, query, upstreamID).Scan(
		&record.ID, &record.UpstreamID, &record.DataSource,
		&record.TitleData.Primary, &record.TitleData.Alternatives, &record.TitleData.Romanized,
		&record.Synopsis, &record.Status, &record.Publisher,
		&record.StartYear, &record.EndYear,
		&record.TotalChapters, &record.SpecialChapters,
		&record.Covers.Thumb, &record.Covers.Medium, &record.Covers.Large,
		&record.LastSyncedAt, &record.SyncStatus, &record.Version,
		&record.CreatedAt, &record.UpdatedAt,
		&genresJSON,
	)

	// Result Validation and Error Handling
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Manhwa")
		}
		return nil, fmt.Errorf("postgres: failed to find manhwa by upstream id: %w", err)
	}

	// Genre Hydration
	if err := json.Unmarshal(genresJSON, &record.Genres); err != nil {
		return nil, fmt.Errorf("postgres: failed to unmarshal genres: %w", err)
	}

	return record, nil
}

/*
Insert persists a new manhwa and its genre links in one transaction.

Description: Executes the insertion within a single ACID-compliant PostgreSQL
transaction, so a failure while linking genres rolls back the core record and
leaves no orphaned rows. The database assigns the identifier, stamps the
creation timestamps, and starts the version counter; the search vector is
populated by the indexing trigger before the transaction commits.

Parameters:
  - context: context.Context for request scoping and timeout tracking
  - record: *Manhwa (Core metadata and initial sync state)
  - genreIDs: []int32 (Genres to link, already validated by the caller)

Returns:
  - int64: The assigned identifier
  - error: apperr.Conflict when the upstream identifier is already taken
*/
func (store *postgresStore) Insert(context context.Context, record *Manhwa, genreIDs []int32) (int64, error) {

	// Transaction Context Instantiation
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}

	// Defer Transaction State Reversal
	defer transaction.Rollback(context)

	// Core Record Insertion Blueprint
	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s,
			%s, %s, %s, %s, %s,
			%s, %s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING %s
	`,
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.DataSource,
		schema.CatalogManhwa.Title,
		schema.CatalogManhwa.AltTitles,
		schema.CatalogManhwa.TitleRomanized,
		schema.CatalogManhwa.Synopsis,
		schema.CatalogManhwa.Status,
		schema.CatalogManhwa.Publisher,
		schema.CatalogManhwa.StartYear,
		schema.CatalogManhwa.EndYear,
		schema.CatalogManhwa.TotalChapters,
		schema.CatalogManhwa.SpecialChapters,
		schema.CatalogManhwa.CoverThumb,
		schema.CatalogManhwa.CoverMedium,
		schema.CatalogManhwa.CoverLarge,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.ID,
	)

	// Transaction Execution Dispatch
	var id int64
	err = transaction.QueryRow(context, query,
		record.UpstreamID,
		record.DataSource,
		record.TitleData.Primary,
		record.TitleData.Alternatives,
		record.TitleData.Romanized,
		record.Synopsis,
		record.Status,
		record.Publisher,
		record.StartYear,
		record.EndYear,
		record.TotalChapters,
		record.SpecialChapters,
		record.Covers.Thumb,
		record.Covers.Medium,
		record.Covers.Large,
		record.LastSyncedAt,
		record.SyncStatus,
	).Scan(&id)

	// Constraint violations surface as domain errors (duplicate upstream link)
	if err != nil {
		return 0, dberr.Wrap(err, "manhwa")
	}

	// Genre Association Synchronization
	if len(genreIDs) > 0 {
		if err := store.linkGenres(context, transaction, id, genreIDs); err != nil {
			return 0, err
		}
	}

	// Final Persistence Validation
	if err := transaction.Commit(context); err != nil {
		return 0, fmt.Errorf("postgres: failed to commit insert transaction: %w", err)
	}

	return id, nil
}

/*
Update patches the mutable fields of an existing manhwa record.

Description: Utilizes a dynamic strings.Builder to construct a PATCH-style
partial update. It checks which fields are populated in the patch entity and
appends them to the SET block, so zero values never overwrite existing
columns. Every successful call advances the version counter and refreshes the
update timestamp; the search vector trigger recomputes the lexeme index inside
the same statement when the title or synopsis changes.

Parameters:
  - context: context.Context handling the operation lifecycle
  - id: int64 (Target record)
  - patch: *Manhwa (Modified attributes only)

Returns:
  - error: apperr.NotFound if the target record does not exist
*/
func (store *postgresStore) Update(context context.Context, id int64, patch *Manhwa) error {

	// Dynamic Query Configuration
	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf("UPDATE %s SET %s = NOW(), %s = %s + 1",
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.UpdatedAt,
		schema.CatalogManhwa.Version, schema.CatalogManhwa.Version,
	))

	// Positional argument tracking
	var args []any
	argID := 1

	// Parameterization Sequence
	// Fields are applied individually so zero values never clobber existing columns.
	if patch.TitleData.Primary != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.Title, argID))
		args = append(args, patch.TitleData.Primary)
		argID++
	}

	// Alternative titles
	if len(patch.TitleData.Alternatives) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.AltTitles, argID))
		args = append(args, patch.TitleData.Alternatives)
		argID++
	}

	// Romanized title
	if patch.TitleData.Romanized != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.TitleRomanized, argID))
		args = append(args, patch.TitleData.Romanized)
		argID++
	}

	// Synopsis
	if patch.Synopsis != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.Synopsis, argID))
		args = append(args, patch.Synopsis)
		argID++
	}

	// Status
	if patch.Status != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.Status, argID))
		args = append(args, patch.Status)
		argID++
	}

	// Publisher
	if patch.Publisher != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.Publisher, argID))
		args = append(args, patch.Publisher)
		argID++
	}

	// Start year
	if patch.StartYear != nil {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.StartYear, argID))
		args = append(args, *patch.StartYear)
		argID++
	}

	// End year
	if patch.EndYear != nil {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.EndYear, argID))
		args = append(args, *patch.EndYear)
		argID++
	}

	// Chapter counters
	if patch.TotalChapters > 0 {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.TotalChapters, argID))
		args = append(args, patch.TotalChapters)
		argID++
	}

	// Special chapter counter
	if patch.SpecialChapters > 0 {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.SpecialChapters, argID))
		args = append(args, patch.SpecialChapters)
		argID++
	}

	// Cover artwork URLs
	if patch.Covers.Thumb != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.CoverThumb, argID))
		args = append(args, patch.Covers.Thumb)
		argID++
	}

	// Medium resolution cover
	if patch.Covers.Medium != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.CoverMedium, argID))
		args = append(args, patch.Covers.Medium)
		argID++
	}

	// Large resolution cover
	if patch.Covers.Large != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.CoverLarge, argID))
		args = append(args, patch.Covers.Large)
		argID++
	}

	// Sync bookkeeping
	if patch.LastSyncedAt != nil {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.LastSyncedAt, argID))
		args = append(args, *patch.LastSyncedAt)
		argID++
	}

	// Sync status transition
	if patch.SyncStatus != "" {
		queryBuilder.WriteString(fmt.Sprintf(", %s = $%d", schema.CatalogManhwa.SyncStatus, argID))
		args = append(args, patch.SyncStatus)
		argID++
	}

	// Targeted Where Constraint Assembly
	queryBuilder.WriteString(fmt.Sprintf(" WHERE %s = $%d", schema.CatalogManhwa.ID, argID))
	args = append(args, id)

	// Patch Execution
	response, err := store.pool.Exec(context, queryBuilder.String(), args...)
	if err != nil {
		return fmt.Errorf("postgres: failed to update manhwa: %w", err)
	}

	// Missing Entity Validation
	if response.RowsAffected() == 0 {
		return apperr.NotFound("Manhwa")
	}

	return nil
}

/*
MarkSyncFailed records that the most recent refresh attempt failed.

Description: Transitions only the sync status column. Content fields, the
version counter, and the update timestamp stay untouched so a failing sync
never reshuffles browse ordering or fakes a content change.

Parameters:
  - context: context.Context
  - id: int64 (Target record)

Returns:
  - error: apperr.NotFound if the record does not exist
*/
func (store *postgresStore) MarkSyncFailed(context context.Context, id int64) error {

	// Direct Status Transition
	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2",
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.ID,
	)

	// Command Execution
	response, err := store.pool.Exec(context, query, SyncFailed, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to mark sync failure: %w", err)
	}

	// Affected Row Verification
	if response.RowsAffected() == 0 {
		return apperr.NotFound("Manhwa")
	}

	return nil
}

/*
FullTextSearch returns records ranked against a plain-text query.

Description: Matches the pre-built search vector, where the primary title
carries weight A and the synopsis weight B, so title hits outrank body hits.
Query terms are OR-composed before parsing: a record matching only some terms
still surfaces, while records matching more terms rank higher through ts_rank.
Filters are AND-composed onto the vector match, and COUNT(*) OVER() delivers
the total alongside the page.

Parameters:
  - context: context.Context
  - query: string (Sanitised search terms, non-empty)
  - filter: Filter (Status, genre, and year-range criteria)
  - limit: int
  - offset: int

Returns:
  - []RankedManhwa: Matching records with their relevance scores
  - int: Total count matching query and filters
  - error: Database execution errors
*/
func (store *postgresStore) FullTextSearch(context context.Context, query string, filter Filter, limit, offset int) ([]RankedManhwa, int, error) {

	// Term Composition
	// Joining with "or" keeps partial matches visible; rank ordering still
	// places fuller matches first.
	terms := strings.Join(strings.Fields(query), " or ")

	// Ranked Query Construction
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT
			m.%s, m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			ts_rank(m.%s, websearch_to_tsquery('english', $1)) AS score,
			COUNT(*) OVER() AS total_count,
			COALESCE((
				SELECT json_agg(json_build_object('id', g.%s, 'name', g.%s, 'slug', g.%s) ORDER BY g.%s)
				FROM %s g
				JOIN %s mg ON g.%s = mg.%s
				WHERE mg.%s = m.%s
			), '[]') AS genres
		FROM %s m
		WHERE m.%s @@ websearch_to_tsquery('english', $1)
	`,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.DataSource,
		schema.CatalogManhwa.Title,
		schema.CatalogManhwa.AltTitles,
		schema.CatalogManhwa.TitleRomanized,
		schema.CatalogManhwa.Synopsis,
		schema.CatalogManhwa.Status,
		schema.CatalogManhwa.Publisher,
		schema.CatalogManhwa.StartYear,
		schema.CatalogManhwa.EndYear,
		schema.CatalogManhwa.TotalChapters,
		schema.CatalogManhwa.SpecialChapters,
		schema.CatalogManhwa.CoverThumb,
		schema.CatalogManhwa.CoverMedium,
		schema.CatalogManhwa.CoverLarge,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.Version,
		schema.CatalogManhwa.CreatedAt,
		schema.CatalogManhwa.UpdatedAt,
		schema.CatalogManhwa.SearchVector,
		schema.CatalogGenre.ID,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Table,
		schema.CatalogManhwaGenre.Table,
		schema.CatalogGenre.ID,
		schema.CatalogManhwaGenre.GenreID,
		schema.CatalogManhwaGenre.ManhwaID,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.SearchVector,
	))
	args = append(args, terms)
	argID := 2

	// Status Filtering
	if len(filter.Statuses) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND m.%s = ANY($%d)", schema.CatalogManhwa.Status, argID))
		args = append(args, filter.Statuses)
		argID++
	}

	// Genre Filtering (existence predicate over the junction)
	if len(filter.GenreSlugs) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM %s mg JOIN %s g ON g.%s = mg.%s WHERE mg.%s = m.%s AND g.%s = ANY($%d))`,
			schema.CatalogManhwaGenre.Table,
			schema.CatalogGenre.Table,
			schema.CatalogGenre.ID,
			schema.CatalogManhwaGenre.GenreID,
			schema.CatalogManhwaGenre.ManhwaID,
			schema.CatalogManhwa.ID,
			schema.CatalogGenre.Slug,
			argID,
		))
		args = append(args, filter.GenreSlugs)
		argID++
	}

	// Year Range Filtering (interval overlap, open-ended end years)
	if filter.YearStart > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND COALESCE(m.%s, %d) >= $%d", schema.CatalogManhwa.EndYear, openEndedYear, argID))
		args = append(args, filter.YearStart)
		argID++
	}

	// Upper bound of the requested interval
	if filter.YearEnd > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND m.%s <= $%d", schema.CatalogManhwa.StartYear, argID))
		args = append(args, filter.YearEnd)
		argID++
	}

	// Relevance Ordering and Pagination
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY score DESC, m.%s ASC", schema.CatalogManhwa.ID))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	// Query Execution
	rows, err := store.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to search manhwa: %w", err)
	}
	defer rows.Close()

	// Hit Hydration
	var results []RankedManhwa
	var totalCount int

	for rows.Next() {
		result := RankedManhwa{}
		var genresJSON []byte

		err := rows.Scan(
			&result.ID, &result.UpstreamID, &result.DataSource,
			&result.TitleData.Primary, &result.TitleData.Alternatives, &result.TitleData.Romanized,
			&result.Synopsis, &result.Status, &result.Publisher,
			&result.StartYear, &result.EndYear,
			&result.TotalChapters, &result.SpecialChapters,
			&result.Covers.Thumb, &result.Covers.Medium, &result.Covers.Large,
			&result.LastSyncedAt, &result.SyncStatus, &result.Version,
			&result.CreatedAt, &result.UpdatedAt,
			&result.Score,
			&totalCount,
			&genresJSON,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan search hit: %w", err)
		}

		if err := json.Unmarshal(genresJSON, &result.Genres); err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to unmarshal genres: %w", err)
		}

		results = append(results, result)
	}

	return results, totalCount, nil
}

/*
FilterSearch returns a filtered, browse-ordered page of records.

Description: Serves query-less discovery. The same status, genre, and
year-range predicates as FullTextSearch apply, but ordering follows the
requested browse sort and defaults to most recently updated first.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Manhwa: Matching records
  - int: Total count matching the filters
  - error: Database execution errors
*/
func (store *postgresStore) FilterSearch(context context.Context, filter Filter, limit, offset int) ([]*Manhwa, int, error) {

	// Browse Query Construction
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT
			m.%s, m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			m.%s, m.%s, m.%s, m.%s, m.%s,
			COUNT(*) OVER() AS total_count,
			COALESCE((
				SELECT json_agg(json_build_object('id', g.%s, 'name', g.%s, 'slug', g.%s) ORDER BY g.%s)
				FROM %s g
				JOIN %s mg ON g.%s = mg.%s
				WHERE mg.%s = m.%s
			), '[]') AS genres
		FROM %s m
		WHERE TRUE
	`,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.DataSource,
		schema.CatalogManhwa.Title,
		schema.CatalogManhwa.AltTitles,
		schema.CatalogManhwa.TitleRomanized,
		schema.CatalogManhwa.Synopsis,
		schema.CatalogManhwa.Status,
		schema.CatalogManhwa.Publisher,
		schema.CatalogManhwa.StartYear,
		schema.CatalogManhwa.EndYear,
		schema.CatalogManhwa.TotalChapters,
		schema.CatalogManhwa.SpecialChapters,
		schema.CatalogManhwa.CoverThumb,
		schema.CatalogManhwa.CoverMedium,
		schema.CatalogManhwa.CoverLarge,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.Version,
		schema.CatalogManhwa.CreatedAt,
		schema.CatalogManhwa.UpdatedAt,
		schema.CatalogGenre.ID,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Table,
		schema.CatalogManhwaGenre.Table,
		schema.CatalogGenre.ID,
		schema.CatalogManhwaGenre.GenreID,
		schema.CatalogManhwaGenre.ManhwaID,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.Table,
	))

	// Status Filtering
	if len(filter.Statuses) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND m.%s = ANY($%d)", schema.CatalogManhwa.Status, argID))
		args = append(args, filter.Statuses)
		argID++
	}

	// Genre Filtering (existence predicate over the junction)
	if len(filter.GenreSlugs) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(
			` AND EXISTS (SELECT 1 FROM %s mg JOIN %s g ON g.%s = mg.%s WHERE mg.%s = m.%s AND g.%s = ANY($%d))`,
			schema.CatalogManhwaGenre.Table,
			schema.CatalogGenre.Table,
			schema.CatalogGenre.ID,
			schema.CatalogManhwaGenre.GenreID,
			schema.CatalogManhwaGenre.ManhwaID,
			schema.CatalogManhwa.ID,
			schema.CatalogGenre.Slug,
			argID,
		))
		args = append(args, filter.GenreSlugs)
		argID++
	}

	// Year Range Filtering (interval overlap, open-ended end years)
	if filter.YearStart > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND COALESCE(m.%s, %d) >= $%d", schema.CatalogManhwa.EndYear, openEndedYear, argID))
		args = append(args, filter.YearStart)
		argID++
	}

	// Upper bound of the requested interval
	if filter.YearEnd > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND m.%s <= $%d", schema.CatalogManhwa.StartYear, argID))
		args = append(args, filter.YearEnd)
		argID++
	}

	// Browse Ordering
	sort := fmt.Sprintf("m.%s", schema.CatalogManhwa.UpdatedAt)
	if filter.Sort == SortCreated {
		sort = fmt.Sprintf("m.%s", schema.CatalogManhwa.CreatedAt)
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s DESC, m.%s DESC", sort, schema.CatalogManhwa.ID))

	// Pagination Injection
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	// Query Execution
	rows, err := store.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list manhwa: %w", err)
	}
	defer rows.Close()

	// Row Iteration and Entity Hydration
	var records []*Manhwa
	var totalCount int

	for rows.Next() {
		record := &Manhwa{}
		var genresJSON []byte

		err := rows.Scan(
			&record.ID, &record.UpstreamID, &record.DataSource,
			&record.TitleData.Primary, &record.TitleData.Alternatives, &record.TitleData.Romanized,
			&record.Synopsis, &record.Status, &record.Publisher,
			&record.StartYear, &record.EndYear,
			&record.TotalChapters, &record.SpecialChapters,
			&record.Covers.Thumb, &record.Covers.Medium, &record.Covers.Large,
			&record.LastSyncedAt, &record.SyncStatus, &record.Version,
			&record.CreatedAt, &record.UpdatedAt,
			&totalCount,
			&genresJSON,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan manhwa: %w", err)
		}

		if err := json.Unmarshal(genresJSON, &record.Genres); err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to unmarshal genres: %w", err)
		}

		records = append(records, record)
	}

	return records, totalCount, nil
}

/*
ListGenresBySlug resolves genre slugs to full genre records.

Description: Resolves the whole batch in one query. Unknown slugs simply yield
no row; the caller compares result and input lengths to detect them. Results
come back in the order the slugs were given.

Parameters:
  - context: context.Context
  - slugs: []string

Returns:
  - []Genre: The genres found, input order preserved
  - error: Database execution errors
*/
func (store *postgresStore) ListGenresBySlug(context context.Context, slugs []string) ([]Genre, error) {

	// Empty Input Check
	if len(slugs) == 0 {
		return []Genre{}, nil
	}

	// Ordered Batch Resolution
	query := fmt.Sprintf(`
		SELECT %s, %s, %s
		FROM %s
		WHERE %s = ANY($1)
		ORDER BY array_position($1::text[], %s)
	`,
		schema.CatalogGenre.ID,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Table,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Slug,
	)

	// Query Execution
	rows, err := store.pool.Query(context, query, slugs)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to resolve genre slugs: %w", err)
	}
	defer rows.Close()

	// Genre Hydration
	genres := make([]Genre, 0, len(slugs))
	for rows.Next() {
		var genre Genre
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Slug); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan genre: %w", err)
		}
		genres = append(genres, genre)
	}

	return genres, nil
}

/*
ListAllGenres returns the full genre taxonomy.

Parameters:
  - context: context.Context

Returns:
  - []Genre: Every genre, name ascending
  - error: Database execution errors
*/
func (store *postgresStore) ListAllGenres(context context.Context) ([]Genre, error) {

	// Ordered Retrieval Query
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s ORDER BY %s ASC",
		schema.CatalogGenre.ID,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.Table,
		schema.CatalogGenre.Name,
	)

	// Query Execution
	rows, err := store.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list genres: %w", err)
	}
	defer rows.Close()

	// Genre Hydration
	genres := make([]Genre, 0)
	for rows.Next() {
		var genre Genre
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Slug); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan genre: %w", err)
		}
		genres = append(genres, genre)
	}

	return genres, nil
}

/*
CreateGenre inserts a genre and returns it with its assigned identifier.

Parameters:
  - context: context.Context
  - genre: Genre (Name and slug)

Returns:
  - *Genre: The created genre
  - error: Conflict on a duplicate slug
*/
func (store *postgresStore) CreateGenre(context context.Context, genre Genre) (*Genre, error) {

	// Insertion Query
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2) RETURNING %s",
		schema.CatalogGenre.Table,
		schema.CatalogGenre.Name,
		schema.CatalogGenre.Slug,
		schema.CatalogGenre.ID,
	)

	// Query Execution
	if err := store.pool.QueryRow(context, query, genre.Name, genre.Slug).Scan(&genre.ID); err != nil {
		return nil, dberr.Wrap(err, "genre")
	}

	return &genre, nil
}

/*
ListSyncCandidates returns upstream-backed records due for a refresh.

Description: Selects records that never synchronised, fell behind the
freshness horizon, or failed their previous refresh. Failed records sort
first, then the longest-unsynced, so the syncer retires the backlog in
priority order.

Parameters:
  - context: context.Context
  - staleBefore: time.Time (Records last synced before this are due)
  - limit: int (Scan cap)

Returns:
  - []SyncCandidate: Identifier, upstream link, and sync state per row
  - error: Database execution errors
*/
func (store *postgresStore) ListSyncCandidates(context context.Context, staleBefore time.Time, limit int) ([]SyncCandidate, error) {

	// Candidate Scan Query
	query := fmt.Sprintf(`
		SELECT m.%s, m.%s, m.%s
		FROM %s m
		WHERE m.%s = $1
		  AND m.%s <> ''
		  AND (m.%s IS NULL OR m.%s < $2 OR m.%s = $3)
		ORDER BY (m.%s = $3) DESC, m.%s ASC NULLS FIRST, m.%s ASC
		LIMIT $4
	`,
		schema.CatalogManhwa.ID,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.Table,
		schema.CatalogManhwa.DataSource,
		schema.CatalogManhwa.UpstreamID,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.SyncStatus,
		schema.CatalogManhwa.LastSyncedAt,
		schema.CatalogManhwa.ID,
	)

	// Query Execution
	rows, err := store.pool.Query(context, query, SourceUpstream, staleBefore, SyncFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list sync candidates: %w", err)
	}
	defer rows.Close()

	// Candidate Hydration
	var candidates []SyncCandidate
	for rows.Next() {
		var candidate SyncCandidate
		if err := rows.Scan(&candidate.ID, &candidate.UpstreamID, &candidate.SyncStatus); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan sync candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

/*
linkGenres synchronizes the manhwa-to-genre junction rows.

Description: Implements a "Clear and Insert" strategy. It first flushes every
mapping for the record, then queues the new links through the native pgx.Batch
pipeline, bounding the whole rewrite to two network round-trips inside the
caller's transaction.

Parameters:
  - context: context.Context
  - transaction: pgx.Tx (The active transaction boundary)
  - id: int64 (The parent record)
  - genreIDs: []int32 (Foreign keys to map to the parent)

Returns:
  - error: Constraint or execution failures
*/
func (store *postgresStore) linkGenres(context context.Context, transaction pgx.Tx, id int64, genreIDs []int32) error {

	// Record Deletion Phase
	delQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		schema.CatalogManhwaGenre.Table,
		schema.CatalogManhwaGenre.ManhwaID,
	)
	if _, err := transaction.Exec(context, delQuery, id); err != nil {
		return fmt.Errorf("postgres: failed to clear genre links: %w", err)
	}

	// Empty Array Check
	if len(genreIDs) == 0 {
		return nil
	}

	// Batch Execution Setup
	insQuery := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2)",
		schema.CatalogManhwaGenre.Table,
		schema.CatalogManhwaGenre.ManhwaID,
		schema.CatalogManhwaGenre.GenreID,
	)
	batch := &pgx.Batch{}
	for _, genreID := range genreIDs {
		batch.Queue(insQuery, id, genreID)
	}

	// Batch Dispatch
	response := transaction.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return dberr.Wrap(err, "genre link")
	}

	return nil
}
