package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/binfleet/binfleet/internal/auth"
	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/server/middleware"
	"github.com/binfleet/binfleet/internal/store"
)

// ProfileHandler is the janitor self-service surface: own profile, own
// assignments, password change.
type ProfileHandler struct {
	store      *store.Store
	bcryptCost int
	logger     *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(st *store.Store, bcryptCost int, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{store: st, bcryptCost: bcryptCost, logger: logger}
}

// Me returns the authenticated identity and, for janitors, the stored
// profile.
// GET /api/v1/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())

	if identity.User.Type == model.UserTypeJanitor {
		j, err := h.store.GetJanitor(r.Context(), identity.User.ID)
		if err != nil {
			h.logger.Error("get own profile", "user", identity.User.String(), "error", err)
			writeServerError(w)
			return
		}
		writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: j})
		return
	}

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: map[string]interface{}{
		"user_type": identity.User.Type,
		"user_id":   identity.User.ID,
		"name":      identity.Name,
		"email":     identity.Email,
	}})
}

// UpdateMe lets a janitor edit their own profile fields.
// PUT /api/v1/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())

	j, err := h.store.GetJanitor(r.Context(), identity.User.ID)
	if err != nil {
		h.logger.Error("get own profile", "user", identity.User.String(), "error", err)
		writeServerError(w)
		return
	}

	var updates struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
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
		h.logger.Error("update own profile", "user", identity.User.String(), "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Data: j})
}

// ChangePassword verifies the current password through the same cascade as
// login and replaces the stored hash. The confirmation notification is
// best-effort and never fails the change.
// POST /api/v1/me/password
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current and new password are required")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	j, err := h.store.GetJanitor(r.Context(), identity.User.ID)
	if err != nil {
		h.logger.Error("get own profile", "user", identity.User.String(), "error", err)
		writeServerError(w)
		return
	}

	if res := auth.VerifyPassword(req.CurrentPassword, j.PasswordHash); !res.OK {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.bcryptCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeServerError(w)
		return
	}
	if err := h.store.UpdateJanitorPassword(r.Context(), j.ID, hash); err != nil {
		h.logger.Error("update own password", "user", identity.User.String(), "error", err)
		writeServerError(w)
		return
	}

	n := &model.Notification{
		UserType: model.UserTypeJanitor,
		UserID:   j.ID,
		Message:  "Your password was changed",
	}
	if err := h.store.CreateNotification(r.Context(), n); err != nil {
		h.logger.Warn("password-change notification", "user", identity.User.String(), "error", err)
	}

	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Password changed"})
}

// MyAssignments returns the janitor's assignments, optionally by status.
// GET /api/v1/me/assignments
func (h *ProfileHandler) MyAssignments(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())
	status := r.URL.Query().Get("status")
	if status != "" && status != model.AssignmentPending && status != model.AssignmentCompleted {
		writeError(w, http.StatusBadRequest, "Unknown assignment status")
		return
	}

	assignments, err := h.store.ListAssignmentsForJanitor(r.Context(), identity.User.ID, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, model.ListResponse{Success: true, Data: []model.Assignment{}})
			return
		}
		h.logger.Error("list own assignments", "user", identity.User.String(), "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Data:    assignments,
		Meta:    model.ListMeta{Count: len(assignments)},
	})
}
