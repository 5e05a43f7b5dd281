package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/store"
)

// BinHandler manages the bin fleet: CRUD, assignment, and status updates.
type BinHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewBinHandler creates a BinHandler.
func NewBinHandler(st *store.Store, logger *slog.Logger) *BinHandler {
	return &BinHandler{store: st, logger: logger}
}

// List returns bins, optionally filtered by status or assigned janitor.
// GET /api/v1/bins
func (h *BinHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", 100), 1, 500)
	offset := queryInt(r, "offset", 0)
	f := store.BinFilter{
		Status:    r.URL.Query().Get("status"),
		JanitorID: int64(queryInt(r, "janitor_id", 0)),
		Limit:     limit,
		Offset:    offset,
	}
	if f.Status != "" && !model.ValidBinStatus(f.Status) {
		writeError(w, http.StatusBadRequest, "Unknown bin status")
		return
	}

	bins, err := h.store.ListBins(r.Context(), f)
	if err != nil {
		h.logger.Error("list bins", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Data:    bins,
		Meta:    model.ListMeta{Count: len(bins), Limit: limit, Offset: offset},
	})
}

// Get returns one bin.
// GET /api/v1/bins/{binID}
func (h *BinHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "binID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bin id")
		return
	}

	bin, err := h.store.GetBin(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Bin not found")
			return
		}
		h.logger.Error("get bin", "bin_id", id, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: bin})
}

// Create registers a new bin.
// POST /api/v1/bins
func (h *BinHandler) Create(w http.ResponseWriter, r *http.Request) {
	var bin model.Bin
	if err := readJSON(r, &bin); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if bin.Code == "" {
		writeError(w, http.StatusBadRequest, "Bin code is required")
		return
	}
	if bin.Status != "" && !model.ValidBinStatus(bin.Status) {
		writeError(w, http.StatusBadRequest, "Unknown bin status")
		return
	}
	if bin.FillLevel < 0 || bin.FillLevel > 100 {
		writeError(w, http.StatusBadRequest, "Fill level must be between 0 and 100")
		return
	}

	if existing, err := h.store.GetBinByCode(r.Context(), bin.Code); err == nil && existing != nil {
		writeError(w, http.StatusConflict, "Bin code already exists")
		return
	}

	if err := h.store.CreateBin(r.Context(), &bin); err != nil {
		h.logger.Error("create bin", "code", bin.Code, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusCreated, model.APIResponse{Success: true, Data: bin})
}

// Update modifies a bin's mutable fields. A transition to full pushes a
// best-effort notification to the assigned janitor.
// PUT /api/v1/bins/{binID}
func (h *BinHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "binID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bin id")
		return
	}

	bin, err := h.store.GetBin(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Bin not found")
			return
		}
		h.logger.Error("get bin", "bin_id", id, "error", err)
		writeServerError(w)
		return
	}
	wasFull := bin.Status == model.BinStatusFull

	var updates struct {
		Code           *string `json:"code"`
		Location       *string `json:"location"`
		CapacityLitres *int    `json:"capacity_litres"`
		FillLevel      *int    `json:"fill_level"`
		Status         *string `json:"status"`
	}
	if err := readJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if updates.Code != nil && *updates.Code != "" {
		bin.Code = *updates.Code
	}
	if updates.Location != nil {
		bin.Location = *updates.Location
	}
	if updates.CapacityLitres != nil && *updates.CapacityLitres > 0 {
		bin.CapacityLitres = *updates.CapacityLitres
	}
	if updates.FillLevel != nil {
		if *updates.FillLevel < 0 || *updates.FillLevel > 100 {
			writeError(w, http.StatusBadRequest, "Fill level must be between 0 and 100")
			return
		}
		bin.FillLevel = *updates.FillLevel
	}
	if updates.Status != nil {
		if !model.ValidBinStatus(*updates.Status) {
			writeError(w, http.StatusBadRequest, "Unknown bin status")
			return
		}
		bin.Status = *updates.Status
	}

	if err := h.store.UpdateBin(r.Context(), bin); err != nil {
		h.logger.Error("update bin", "bin_id", id, "error", err)
		writeServerError(w)
		return
	}

	if !wasFull && bin.Status == model.BinStatusFull && bin.AssignedJanitorID != nil {
		h.notifyBinFull(r, bin)
	}

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: bin})
}

// Delete removes a bin.
// DELETE /api/v1/bins/{binID}
func (h *BinHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "binID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bin id")
		return
	}

	if err := h.store.DeleteBin(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Bin not found")
			return
		}
		h.logger.Error("delete bin", "bin_id", id, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Bin deleted"})
}

// Assign sets the janitor responsible for a bin and opens a pending
// assignment.
// POST /api/v1/bins/{binID}/assign
func (h *BinHandler) Assign(w http.ResponseWriter, r *http.Request) {
	binID, ok := pathID(chi.URLParam(r, "binID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bin id")
		return
	}

	var req struct {
		JanitorID int64 `json:"janitor_id"`
	}
	if err := readJSON(r, &req); err != nil || req.JanitorID <= 0 {
		writeError(w, http.StatusBadRequest, "janitor_id is required")
		return
	}

	if _, err := h.store.GetActiveJanitor(r.Context(), req.JanitorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Janitor not found or inactive")
			return
		}
		h.logger.Error("get janitor", "janitor_id", req.JanitorID, "error", err)
		writeServerError(w)
		return
	}

	if err := h.store.AssignJanitor(r.Context(), binID, req.JanitorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Bin not found")
			return
		}
		h.logger.Error("assign janitor", "bin_id", binID, "janitor_id", req.JanitorID, "error", err)
		writeServerError(w)
		return
	}

	// Best-effort: tell the janitor about the new assignment.
	n := &model.Notification{
		BinID:    &binID,
		UserType: model.UserTypeJanitor,
		UserID:   req.JanitorID,
		Message:  "You have been assigned a new bin",
	}
	if err := h.store.CreateNotification(r.Context(), n); err != nil {
		h.logger.Warn("assignment notification", "bin_id", binID, "error", err)
	}

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Janitor assigned"})
}

func (h *BinHandler) notifyBinFull(r *http.Request, bin *model.Bin) {
	n := &model.Notification{
		BinID:    &bin.ID,
		UserType: model.UserTypeJanitor,
		UserID:   *bin.AssignedJanitorID,
		Message:  "Bin " + bin.Code + " is full and needs collection",
	}
	if err := h.store.CreateNotification(r.Context(), n); err != nil {
		h.logger.Warn("bin-full notification", "bin_id", bin.ID, "error", err)
	}
}
