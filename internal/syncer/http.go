// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package syncer

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/manhwaru/internal/platform/request"
	"github.com/taibuivan/manhwaru/internal/platform/respond"
)

// # Admin Handler

// RecordResolver looks up the upstream link of a catalogue record, so the
// manual sync endpoint can accept a bare local identifier.
type RecordResolver interface {
	FindUpstreamLink(ctx context.Context, id int64) (string, error)
}

// Handler exposes the syncer's operator endpoints. It is mounted under the
// admin catalogue surface by the composition root.
type Handler struct {
	syncer   *Syncer
	resolver RecordResolver
}

// NewHandler constructs the sync admin [Handler].
func NewHandler(syncer *Syncer, resolver RecordResolver) *Handler {
	return &Handler{syncer: syncer, resolver: resolver}
}

// Routes returns a [chi.Router] with the sync control endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/status", handler.status)
	router.Post("/all", handler.syncAll)
	router.Post("/{id}", handler.syncOne)

	return router
}

// status handles GET /status.
func (handler *Handler) status(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.syncer.Status())
}

// syncAll handles POST /all: seed from the store, then drain. The drain runs
// in the processing loop; the response only acknowledges the kick.
func (handler *Handler) syncAll(writer http.ResponseWriter, request *http.Request) {
	enqueued := handler.syncer.QueueOutdated(request.Context())
	handler.syncer.kickProcessing()

	respond.OK(writer, map[string]any{
		"enqueued":    enqueued,
		"queueLength": handler.syncer.Status().QueueLength,
	})
}

// syncOne handles POST /{id}: enqueue one record at the highest priority.
func (handler *Handler) syncOne(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	upstreamID, err := handler.resolver.FindUpstreamLink(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.syncer.SyncNow(id, upstreamID)
	respond.OK(writer, map[string]string{"status": "queued"})
}
