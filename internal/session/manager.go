// Package session issues and restores persistent login sessions backed by
// the auth_sessions table and an auth_token cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/binfleet/binfleet/internal/model"
	"github.com/binfleet/binfleet/internal/store"
)

// CookieName is the persistent login cookie. Its value is the raw 64-hex
// token; the server stores only the token's SHA-256 digest.
const CookieName = "auth_token"

// Config controls token validity and cookie attributes.
type Config struct {
	// Validity is the lifetime granted to persistent (remember-me)
	// sessions at issuance and on each sliding renewal.
	Validity time.Duration
	// EphemeralValidity is the fixed lifetime of non-persistent sessions,
	// which ride a browser-session cookie and never slide.
	EphemeralValidity time.Duration
	// SecureCookie sets the Secure attribute. Disabled only for local
	// development over plain HTTP.
	SecureCookie bool
}

// DefaultConfig returns the production defaults: 30-day sliding validity
// for persistent sessions, a 12-hour fixed window for ephemeral ones,
// secure cookies.
func DefaultConfig() Config {
	return Config{
		Validity:          30 * 24 * time.Hour,
		EphemeralValidity: 12 * time.Hour,
		SecureCookie:      true,
	}
}

// Manager drives the persistent-login lifecycle: issue on login, restore on
// each request, total logout, and the periodic cleanup sweep.
type Manager struct {
	store  *store.Store
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(st *store.Store, cfg Config, logger *slog.Logger) *Manager {
	def := DefaultConfig()
	if cfg.Validity <= 0 {
		cfg.Validity = def.Validity
	}
	if cfg.EphemeralValidity <= 0 {
		cfg.EphemeralValidity = def.EphemeralValidity
	}
	return &Manager{store: st, cfg: cfg, logger: logger}
}

// Issue creates a session for user and sets the auth_token cookie. A
// persistent session gets the full sliding validity and a Max-Age cookie
// that survives browser restarts; an ephemeral one gets the short fixed
// window and a browser-session cookie, so the role re-authenticates next
// browser session. The raw token lives only in the cookie; on storage
// failure no cookie is set and the caller decides whether the login
// proceeds without one.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, user model.UserRef, persistent bool, ip, userAgent string) error {
	validity := m.cfg.EphemeralValidity
	if persistent {
		validity = m.cfg.Validity
	}
	rawToken, err := m.store.CreateSession(ctx, user, validity, ip, userAgent)
	if err != nil {
		return fmt.Errorf("issue session: %w", err)
	}
	m.setCookie(w, rawToken, persistent)
	return nil
}

// Restore resolves the request's auth_token cookie to an authenticated
// identity. Every dead-end clears the cookie, and where the server row
// itself is dead (expired, or its owner gone or deactivated) the row is
// deactivated too, so client and server can never disagree about whether
// the session is live. A nil identity with a nil error means "no session",
// which is a normal outcome.
func (m *Manager) Restore(w http.ResponseWriter, r *http.Request) (*model.Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	rawToken := cookie.Value
	ctx := r.Context()

	sess, err := m.store.GetSessionByToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.clearCookie(w)
			return nil, nil
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}

	now := time.Now().UTC()
	if !sess.ExpiresAt.After(now) {
		if err := m.store.DeactivateSession(ctx, rawToken); err != nil {
			m.logger.Warn("deactivate expired session", "error", err)
		}
		m.clearCookie(w)
		return nil, nil
	}
	if !sess.IsActive {
		m.clearCookie(w)
		return nil, nil
	}

	identity, err := m.resolveOwner(ctx, sess.User())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Owner deleted or deactivated since the token was issued.
			if derr := m.store.DeactivateSession(ctx, rawToken); derr != nil {
				m.logger.Warn("deactivate orphaned session", "error", derr)
			}
			m.clearCookie(w)
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session owner: %w", err)
	}

	// Persistent sessions slide: touch activity, push the expiry forward,
	// renew the cookie window to match. Ephemeral sessions keep their
	// fixed expiry and only record activity. A session is persistent iff
	// its lifetime spans at least the full validity window; sliding only
	// ever widens that span, so the discriminator is stable.
	if persistent := sess.ExpiresAt.Sub(sess.CreatedAt) >= m.cfg.Validity; persistent {
		if err := m.store.TouchSession(ctx, rawToken, m.cfg.Validity); err != nil {
			m.logger.Warn("touch session", "user", sess.User().String(), "error", err)
		}
		m.setCookie(w, rawToken, true)
	} else if err := m.store.TouchSession(ctx, rawToken, 0); err != nil {
		m.logger.Warn("touch session", "user", sess.User().String(), "error", err)
	}

	return identity, nil
}

// Logout deactivates every session for the owner and clears the cookie.
// Logout is total, not single-device.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, user model.UserRef) error {
	err := m.store.DeactivateSessionsForUser(ctx, user)
	m.clearCookie(w)
	if err != nil {
		return fmt.Errorf("logout %s: %w", user, err)
	}
	return nil
}

// ClearCookie removes the auth cookie without touching server state. Used
// when a logout request arrives with no restorable session.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	m.clearCookie(w)
}

// SweepLoop deletes stale session rows on the given interval until ctx is
// cancelled. Runs once immediately.
func (m *Manager) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := m.store.CleanupSessions(ctx)
		if err != nil {
			m.logger.Error("session cleanup", "error", err)
		} else if n > 0 {
			m.logger.Info("session cleanup", "removed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Manager) resolveOwner(ctx context.Context, user model.UserRef) (*model.Identity, error) {
	switch user.Type {
	case model.UserTypeAdmin:
		admin, err := m.store.GetActiveAdmin(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &model.Identity{User: user, Name: admin.FullName(), Email: admin.Email}, nil
	case model.UserTypeJanitor:
		j, err := m.store.GetActiveJanitor(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &model.Identity{User: user, Name: j.FullName(), Email: j.Email}, nil
	default:
		return nil, store.ErrNotFound
	}
}

func (m *Manager) setCookie(w http.ResponseWriter, rawToken string, persistent bool) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    rawToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if persistent {
		c.MaxAge = int(m.cfg.Validity.Seconds())
	}
	http.SetCookie(w, c)
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
