// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manhwa

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/manhwaru/internal/platform/apperr"
	"github.com/taibuivan/manhwaru/internal/platform/constants"
	requestutil "github.com/taibuivan/manhwaru/internal/platform/request"
	"github.com/taibuivan/manhwaru/internal/platform/respond"
	"github.com/taibuivan/manhwaru/internal/platform/validate"
	"github.com/taibuivan/manhwaru/pkg/convert"
	"github.com/taibuivan/manhwaru/pkg/pagination"
	"github.com/taibuivan/manhwaru/pkg/slice"
)

// Request size bounds enforced at the transport boundary.
const (
	maxQueryLength  = 200
	maxGenreFilters = 10
	maxBulkIDs      = 100
)

// # Handler Implementation

// Handler implements the HTTP layer of the catalogue.
// It translates web requests into domain service calls.
type Handler struct {
	service *Service
}

// NewHandler constructs a catalogue [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the public catalogue endpoints.
// The admin surface is a separate router; see [Handler.AdminRoutes].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Discovery Endpoints
	router.Post("/search", handler.search)
	router.Post("/bulk", handler.bulkGet)
	router.Get("/trending", handler.trending)
	router.Get("/recent", handler.recentlyAdded)
	router.Get("/random", handler.random)
	router.Get("/genres", handler.listGenres)
	router.Get("/{id}", handler.getByID)

	return router
}

// # Wire Payloads

// searchRequest is the body of POST /search.
type searchRequest struct {
	Query   string `json:"query"`
	Filters struct {
		Genres    []string `json:"genres,omitempty"`
		Status    []string `json:"status,omitempty"`
		YearRange *struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"yearRange,omitempty"`
	} `json:"filters"`
	Pagination struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	} `json:"pagination"`
	IncludeExternal bool `json:"includeExternal"`
}

// flexibleID accepts a JSON number or a numeric string, so clients that
// serialise 64-bit identifiers as strings keep working.
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	*f = flexibleID(id)
	return nil
}

// bulkRequest is the body of POST /bulk.
type bulkRequest struct {
	IDs []flexibleID `json:"ids"`
}

// bulkResponse pairs the resolved entities with the absent identifiers.
type bulkResponse struct {
	Entities map[int64]*Manhwa `json:"entities"`
	NotFound []int64           `json:"notFound"`
}

// # Public Handlers

// search handles POST /search.
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	var body searchRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Boundary Validation
	validator := &validate.Validator{}
	validator.
		Required(FieldQuery, body.Query).
		MaxLen(FieldQuery, body.Query, maxQueryLength).
		Custom(FieldGenres, len(body.Filters.Genres) > maxGenreFilters, "at most 10 genre filters").
		Custom(FieldPagination, body.Pagination.Page < 0, "page must be positive")
	for _, status := range body.Filters.Status {
		validator.OneOf(FieldStatus, status,
			string(StatusOngoing), string(StatusCompleted), string(StatusHiatus), string(StatusCancelled))
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := SearchParams{
		Query: body.Query,
		Filter: Filter{
			GenreSlugs: body.Filters.Genres,
			Statuses:   slice.Map(body.Filters.Status, func(status string) Status { return Status(status) }),
		},
		Page:            body.Pagination.Page,
		Limit:           body.Pagination.Limit,
		IncludeExternal: body.IncludeExternal,
	}
	if body.Filters.YearRange != nil {
		params.Filter.YearStart = body.Filters.YearRange.Start
		params.Filter.YearEnd = body.Filters.YearRange.End
	}

	response, err := handler.service.Search(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, response)
}

// getByID handles GET /{id}. The refresh query flag forces a synchronous
// upstream refresh before the record is returned.
func (handler *Handler) getByID(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64ID(request, FieldID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	forceRefresh := convert.ToBool(request.URL.Query().Get("refresh"))

	record, err := handler.service.GetByID(request.Context(), id, forceRefresh)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, record)
}

// bulkGet handles POST /bulk.
func (handler *Handler) bulkGet(writer http.ResponseWriter, request *http.Request) {
	var body bulkRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if len(body.IDs) == 0 || len(body.IDs) > maxBulkIDs {
		respond.Error(writer, request, apperr.BadInput("ids must contain between 1 and 100 entries"))
		return
	}

	ids := slice.Map(body.IDs, func(id flexibleID) int64 { return int64(id) })
	entities, notFound, err := handler.service.BulkGet(request.Context(), ids)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, bulkResponse{Entities: entities, NotFound: notFound})
}

// trending handles GET /trending.
func (handler *Handler) trending(writer http.ResponseWriter, request *http.Request) {
	limit := convert.ToIntD(request.URL.Query().Get("limit"), pagination.DefaultLimit)

	response, err := handler.service.engine.Trending(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, response)
}

// recentlyAdded handles GET /recent.
func (handler *Handler) recentlyAdded(writer http.ResponseWriter, request *http.Request) {
	limit := convert.ToIntD(request.URL.Query().Get("limit"), pagination.DefaultLimit)

	response, err := handler.service.engine.RecentlyAdded(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, response)
}

// random handles GET /random.
func (handler *Handler) random(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.service.Random(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

// listGenres handles GET /genres. The taxonomy changes rarely, so the
// response is marked cacheable for a day.
func (handler *Handler) listGenres(writer http.ResponseWriter, request *http.Request) {
	genres, err := handler.service.ListGenres(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set(constants.HeaderCacheControl, "public, max-age=86400")
	respond.OK(writer, genres)
}
