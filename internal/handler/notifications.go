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

// NotificationHandler serves the current identity's notification feed.
type NotificationHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(st *store.Store, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{store: st, logger: logger}
}

// List returns the caller's notifications, newest first.
// GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())
	limit := clampInt(queryInt(r, "limit", 50), 1, 200)

	notifications, err := h.store.ListNotificationsForUser(r.Context(), identity.User, limit)
	if err != nil {
		h.logger.Error("list notifications", "user", identity.User.String(), "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Success: true,
		Data:    notifications,
		Meta:    model.ListMeta{Count: len(notifications), Limit: limit},
	})
}

// MarkRead acknowledges one of the caller's notifications.
// POST /api/v1/notifications/{notificationID}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())
	id, ok := pathID(chi.URLParam(r, "notificationID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := h.store.MarkNotificationRead(r.Context(), identity.User, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.Error("mark notification read", "notification_id", id, "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Notification marked read"})
}
