package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/binfleet/binfleet/internal/auth"
	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/store"
)

// JanitorHandler manages janitor accounts (admin-only routes).
type JanitorHandler struct {
	store      *store.Store
	bcryptCost int
	logger     *slog.Logger
}

// NewJanitorHandler creates a JanitorHandler.
func NewJanitorHandler(st *store.Store, bcryptCost int, logger *slog.Logger) *JanitorHandler {
	return &JanitorHandler{store: st, bcryptCost: bcryptCost, logger: logger}
}

// List returns all janitor accounts.
// GET /api/v1/janitors
func (h *JanitorHandler) List(w http.ResponseWriter, r *http.Request) {
	janitors, err := h.store.ListJanitors(r.Context())
	if err != nil {
		h.logger.Error("list janitors", "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Data:    janitors,
		Meta:    model.ListMeta{Count: len(janitors)},
	})
}

// Get returns one janitor.
// GET /api/v1/janitors/{janitorID}
func (h *JanitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "janitorID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid janitor id")
		return
	}

	j, err := h.store.GetJanitor(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Janitor not found")
			return
		}
		h.logger.Error("get janitor", "janitor_id", id, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: j})
}

// createJanitorRequest is the Create payload; the password arrives in
// clear and is hashed before storage.
type createJanitorRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

// Create registers a new janitor account.
// POST /api/v1/janitors
func (h *JanitorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJanitorRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if existing, err := h.store.GetJanitorByEmail(r.Context(), req.Email); err == nil && existing != nil {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeServerError(w)
		return
	}

	j := model.Janitor{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Status:       string(model.StatusActive),
	}
	if err := h.store.CreateJanitor(r.Context(), &j); err != nil {
		h.logger.Error("create janitor", "email", req.Email, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusCreated, model.APIResponse{Success: true, Data: j})
}

// Update modifies a janitor's profile fields or status.
// PUT /api/v1/janitors/{janitorID}
func (h *JanitorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "janitorID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid janitor id")
		return
	}

	j, err := h.store.GetJanitor(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Janitor not found")
			return
		}
		h.logger.Error("get janitor", "janitor_id", id, "error", err)
		writeServerError(w)
		return
	}

	var updates struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
		Status    *string `json:"status"`
	}
	if err := readJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if updates.FirstName != nil {
		j.FirstName = *updates.FirstName
	}
	if updates.LastName != nil {
		j.LastName = *updates.LastName
	}
	if updates.Email != nil {
		email := strings.TrimSpace(*updates.Email)
		if !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "A valid email is required")
			return
		}
		j.Email = email
	}
	if updates.Phone != nil {
		j.Phone = *updates.Phone
	}

	if err := h.store.UpdateJanitorProfile(r.Context(), j); err != nil {
		h.logger.Error("update janitor", "janitor_id", id, "error", err)
		writeServerError(w)
		return
	}

	if updates.Status != nil {
		status := model.AccountStatus(*updates.Status)
		if status != model.StatusActive && status != model.StatusInactive {
			writeError(w, http.StatusBadRequest, "Unknown status")
			return
		}
		if err := h.store.SetJanitorStatus(r.Context(), id, status); err != nil {
			h.logger.Error("set janitor status", "janitor_id", id, "error", err)
			writeServerError(w)
			return
		}
		j.Status = string(status)
		// Deactivation kills outstanding sessions; restore rejects them
		// anyway, this just removes the grace window.
		if status == model.StatusInactive {
			user := model.UserRef{Type: model.UserTypeJanitor, ID: id}
			if err := h.store.DeactivateSessionsForUser(r.Context(), user); err != nil {
				h.logger.Warn("deactivate sessions", "janitor_id", id, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: j})
}

// Delete removes a janitor account and deactivates its sessions.
// DELETE /api/v1/janitors/{janitorID}
func (h *JanitorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "janitorID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid janitor id")
		return
	}

	if err := h.store.DeleteJanitor(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Janitor not found")
			return
		}
		h.logger.Error("delete janitor", "janitor_id", id, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Janitor deleted"})
}
