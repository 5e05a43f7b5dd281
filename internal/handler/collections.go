package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/server/middleware"
	"github.com/binfleet/binfleet/internal/store"
)

// CollectionHandler records and lists bin collections.
type CollectionHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(st *store.Store, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{store: st, logger: logger}
}

// Collect records the current janitor emptying a bin. The bin reset, the
// collection row, and the assignment completion commit atomically; any
// failure rolls all three back.
// POST /api/v1/bins/{binID}/collect
func (h *CollectionHandler) Collect(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())
	binID, ok := pathID(chi.URLParam(r, "binID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bin id")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	coll, err := h.store.RecordCollection(r.Context(), binID, identity.User.ID, req.Notes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Bin not found")
			return
		}
		h.logger.Error("record collection", "bin_id", binID, "janitor_id", identity.User.ID, "error", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusCreated, model.APIResponse{Success: true, Data: coll})
}

// List returns collections, filterable by bin and janitor (admin route).
// GET /api/v1/collections
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", 100), 1, 500)
	offset := queryInt(r, "offset", 0)
	f := store.CollectionFilter{
		BinID:     int64(queryInt(r, "bin_id", 0)),
		JanitorID: int64(queryInt(r, "janitor_id", 0)),
		Limit:     limit,
		Offset:    offset,
	}

	collections, err := h.store.ListCollections(r.Context(), f)
	if err != nil {
		h.logger.Error("list collections", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Data:    collections,
		Meta:    model.ListMeta{Count: len(collections), Limit: limit, Offset: offset},
	})
}

// Mine returns the current janitor's own collections.
// GET /api/v1/me/collections
func (h *CollectionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())
	limit := clampInt(queryInt(r, "limit", 100), 1, 500)

	collections, err := h.store.ListCollections(r.Context(), store.CollectionFilter{
		JanitorID: identity.User.ID,
		Limit:     limit,
	})
	if err != nil {
		h.logger.Error("list own collections", "janitor_id", identity.User.ID, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Data:    collections,
		Meta:    model.ListMeta{Count: len(collections), Limit: limit},
	})
}
