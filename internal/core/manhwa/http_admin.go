// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manhwa

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/manhwaru/internal/platform/request"
	"github.com/taibuivan/manhwaru/internal/platform/respond"
	"github.com/taibuivan/manhwaru/internal/platform/validate"
)

// # Admin Surface

// AdminRoutes returns a [chi.Router] with the operator endpoints: catalogue
// writes, cache administration, and the sync controls supplied by the syncer
// domain. The admin-token guard is applied by the composition root, not here.
func (handler *Handler) AdminRoutes(sync http.Handler) chi.Router {
	router := chi.NewRouter()

	// ## Catalogue Writes
	router.Post("/", handler.create)
	router.Post("/import", handler.importUpstream)
	router.Post("/{id}/refresh", handler.refresh)
	router.Post("/genres", handler.createGenre)

	// ## Cache Administration
	router.Get("/cache/status", handler.cacheStatus)
	router.Post("/cache/clear", handler.cacheClear)

	// ## Sync Controls
	router.Mount("/sync", sync)

	return router
}

// importRequest is the body of POST /import.
type importRequest struct {
	UpstreamID string `json:"upstreamId"`
}

// clearCacheRequest is the body of POST /cache/clear.
type clearCacheRequest struct {
	Pattern string `json:"pattern"`
}

// # Admin Handlers

// create handles POST / — a locally curated catalogue entry.
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, record)
}

// importUpstream handles POST /import.
func (handler *Handler) importUpstream(writer http.ResponseWriter, request *http.Request) {
	var body importRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.UUID(FieldUpstreamID, body.UpstreamID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Import(request.Context(), body.UpstreamID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, record)
}

// refresh handles POST /{id}/refresh — a synchronous single-record sync.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64ID(request, FieldID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Refresh(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

// createGenre handles POST /genres.
func (handler *Handler) createGenre(writer http.ResponseWriter, request *http.Request) {
	var input GenreInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	genre, err := handler.service.CreateGenre(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, genre)
}

// cacheStatus handles GET /cache/status.
func (handler *Handler) cacheStatus(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.service.CacheStats())
}

// cacheClear handles POST /cache/clear.
func (handler *Handler) cacheClear(writer http.ResponseWriter, request *http.Request) {
	var body clearCacheRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required("pattern", body.Pattern).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	removed := handler.service.ClearCache(request.Context(), body.Pattern)
	respond.OK(writer, map[string]int{"removed": removed})
}
