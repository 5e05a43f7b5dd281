package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/binfleet/binfleet/internal/auth"
	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/server/middleware"
	"github.com/binfleet/binfleet/internal/session"
	"github.com/binfleet/binfleet/internal/store"
)

// loginFailedMessage is the single rejection text for every authentication
// failure. It must stay byte-identical across unknown email, wrong
// password, inactive account, and missing hash, so responses cannot be
// used to enumerate accounts.
const loginFailedMessage = "Invalid email or password"

// PersistentLogin controls which roles receive a remember-me cookie on
// login. Roles without it get a browser-session cookie instead.
type PersistentLogin struct {
	Admin   bool
	Janitor bool
}

// AuthHandler implements the two login flows and logout.
type AuthHandler struct {
	store      *store.Store
	sessions   *session.Manager
	persistent PersistentLogin
	bcryptCost int
	logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(st *store.Store, sessions *session.Manager, persistent PersistentLogin, bcryptCost int, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		store:      st,
		sessions:   sessions,
		persistent: persistent,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// AdminLogin authenticates an admin account.
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	email, password := readCredentials(r)
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := h.store.GetAdminByEmail(r.Context(), email)
	if err != nil {
		h.rejectLogin(w, r, err, email, "admin")
		return
	}

	if err := h.verify(r.Context(), password, admin.PasswordHash, admin.Status, func(ctx context.Context, hash string) error {
		return h.store.UpdateAdminPassword(ctx, admin.ID, hash)
	}); err != nil {
		h.rejectLogin(w, r, err, email, "admin")
		return
	}

	user := model.UserRef{Type: model.UserTypeAdmin, ID: admin.ID}
	h.establishSession(w, r, user, h.persistent.Admin)

	writeJSON(w, http.StatusOK, model.APIResponse{
		Success:  true,
		Message:  "Login successful",
		Redirect: "/admin/dashboard",
	})
}

// JanitorLogin authenticates a janitor account.
// POST /api/v1/auth/janitor/login
func (h *AuthHandler) JanitorLogin(w http.ResponseWriter, r *http.Request) {
	email, password := readCredentials(r)
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	j, err := h.store.GetJanitorByEmail(r.Context(), email)
	if err != nil {
		h.rejectLogin(w, r, err, email, "janitor")
		return
	}

	if err := h.verify(r.Context(), password, j.PasswordHash, j.Status, func(ctx context.Context, hash string) error {
		return h.store.UpdateJanitorPassword(ctx, j.ID, hash)
	}); err != nil {
		h.rejectLogin(w, r, err, email, "janitor")
		return
	}

	user := model.UserRef{Type: model.UserTypeJanitor, ID: j.ID}
	h.establishSession(w, r, user, h.persistent.Janitor)

	writeJSON(w, http.StatusOK, model.APIResponse{
		Success:  true,
		Message:  "Login successful",
		Redirect: "/janitor/dashboard",
	})
}

// Logout deactivates every session for the current identity and clears the
// cookie. With no restorable identity it still clears the cookie and
// reports success; logging out twice is not an error.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.CurrentIdentity(r.Context())
	if identity == nil {
		h.sessions.ClearCookie(w)
		writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Logged out"})
		return
	}

	if err := h.sessions.Logout(r.Context(), w, identity.User); err != nil {
		h.logger.Error("logout", "user", identity.User.String(), "error", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, model.APIResponse{Success: true, Message: "Logged out"})
}

// verify runs the credential cascade against a fetched account and, when a
// legacy hash matched, opportunistically migrates it to bcrypt. Migration
// failure is logged and swallowed: the login still succeeds and the next
// one retries the upgrade.
func (h *AuthHandler) verify(ctx context.Context, password, storedHash, status string, rehash func(context.Context, string) error) error {
	if status != string(model.StatusActive) {
		return auth.ErrInvalidCredentials
	}
	res := auth.VerifyPassword(password, storedHash)
	if !res.OK {
		return auth.ErrInvalidCredentials
	}

	if res.NeedsRehash {
		newHash, err := auth.HashPassword(password, h.bcryptCost)
		if err != nil {
			h.logger.Warn("legacy hash migration: rehash", "error", err)
			return nil
		}
		if err := rehash(ctx, newHash); err != nil {
			h.logger.Warn("legacy hash migration: store", "error", err)
			return nil
		}
		h.logger.Info("migrated legacy password hash", "strategy", res.Strategy)
	}
	return nil
}

// establishSession issues the post-login session. A persistence failure
// after a correct password does not fail the login: the client gets a
// success without a cookie and authenticates again next time.
func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, user model.UserRef, persistent bool) {
	err := h.sessions.Issue(r.Context(), w, user, persistent, clientIP(r), r.UserAgent())
	if err != nil {
		h.logger.Error("establish session", "user", user.String(), "error", err)
	}
}

// rejectLogin collapses all authentication failures into the one generic
// response, logging the real cause server-side. Unexpected storage errors
// surface as a server error instead, since retrying may succeed.
func (h *AuthHandler) rejectLogin(w http.ResponseWriter, r *http.Request, err error, email, flow string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.Warn("login rejected", "flow", flow, "email", email, "cause", "unknown email")
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.logger.Warn("login rejected", "flow", flow, "email", email, "cause", "bad credentials or inactive account")
	default:
		h.logger.Error("login failed", "flow", flow, "email", email, "error", err)
		writeServerError(w)
		return
	}
	writeError(w, http.StatusUnauthorized, loginFailedMessage)
}
