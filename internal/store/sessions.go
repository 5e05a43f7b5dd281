package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/binfleet/binfleet/internal/model"
)

// sessionRetention is how long inactive session rows are kept before the
// cleanup sweep removes them.
const sessionRetention = 7 * 24 * time.Hour

// HashToken computes the SHA-256 hex digest of a raw session token. Only
// this digest is ever persisted; possession of a database dump does not
// yield usable tokens.
func HashToken(rawToken string) string {
	h := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(h[:])
}

// CreateSession issues a new persistent session for the given owner and
// returns the raw token. The raw token is never stored; this return value
// is the only time it exists outside the client's cookie.
func (s *Store) CreateSession(ctx context.Context, user model.UserRef, validity time.Duration, ip, userAgent string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	rawToken := hex.EncodeToString(buf)

	now := time.Now().UTC()
	sess := model.AuthSession{
		UserType:     user.Type,
		UserID:       user.ID,
		TokenHash:    HashToken(rawToken),
		IPAddress:    ip,
		UserAgent:    userAgent,
		ExpiresAt:    now.Add(validity),
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	}

	const q = `INSERT INTO auth_sessions
		(user_type, user_id, token_hash, ip_address, user_agent, expires_at, created_at, last_activity, is_active)
		VALUES
		(:user_type, :user_id, :token_hash, :ip_address, :user_agent, :expires_at, :created_at, :last_activity, :is_active)`

	if _, err := s.insertReturningID(ctx, q, "session_id", sess); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return rawToken, nil
}

// GetSessionByToken returns the session row matching the raw token's hash,
// whatever its state. The session manager inspects expiry and the active
// flag itself so it can deactivate rows it finds in a dead state.
func (s *Store) GetSessionByToken(ctx context.Context, rawToken string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.GetContext(ctx, &sess,
		s.rebind("SELECT * FROM auth_sessions WHERE token_hash = ?"), HashToken(rawToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return &sess, nil
}

// ValidateToken returns the session for a raw token only when it is active
// and unexpired. A missing or garbage token yields ErrNotFound, which is a
// normal outcome, not a fault.
func (s *Store) ValidateToken(ctx context.Context, rawToken string) (*model.AuthSession, error) {
	sess, err := s.GetSessionByToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if !sess.Usable(time.Now().UTC()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// TouchSession records activity on a session. A positive extend pushes the
// expiry forward by that much (sliding expiry); zero leaves it fixed.
func (s *Store) TouchSession(ctx context.Context, rawToken string, extend time.Duration) error {
	now := time.Now().UTC()
	var err error
	if extend > 0 {
		_, err = s.db.ExecContext(ctx,
			s.rebind("UPDATE auth_sessions SET last_activity = ?, expires_at = ? WHERE token_hash = ?"),
			now, now.Add(extend), HashToken(rawToken))
	} else {
		_, err = s.db.ExecContext(ctx,
			s.rebind("UPDATE auth_sessions SET last_activity = ? WHERE token_hash = ?"),
			now, HashToken(rawToken))
	}
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeactivateSession marks the session matching the raw token inactive.
// Idempotent: deactivating an unknown or already-inactive token succeeds.
func (s *Store) DeactivateSession(ctx context.Context, rawToken string) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE auth_sessions SET is_active = ? WHERE token_hash = ?"),
		false, HashToken(rawToken))
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// DeactivateSessionsForUser marks every session for the owner inactive.
// Logout is total: all devices, not just the one presenting the cookie.
func (s *Store) DeactivateSessionsForUser(ctx context.Context, user model.UserRef) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE auth_sessions SET is_active = ? WHERE user_type = ? AND user_id = ?"),
		false, string(user.Type), user.ID)
	if err != nil {
		return fmt.Errorf("deactivate sessions for %s: %w", user, err)
	}
	return nil
}

// ListSessionsForUser returns all session rows for an owner, newest first.
func (s *Store) ListSessionsForUser(ctx context.Context, user model.UserRef) ([]model.AuthSession, error) {
	var sessions []model.AuthSession
	err := s.db.SelectContext(ctx, &sessions,
		s.rebind("SELECT * FROM auth_sessions WHERE user_type = ? AND user_id = ? ORDER BY created_at DESC"),
		string(user.Type), user.ID)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", user, err)
	}
	return sessions, nil
}

// CleanupSessions deletes rows that are expired, or inactive and idle past
// the retention window. Returns the number of rows removed. Invoked by the
// periodic sweep in the serve command and by `binfleet sessions cleanup`.
func (s *Store) CleanupSessions(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM auth_sessions
			WHERE expires_at < ?
			   OR (is_active = ? AND last_activity < ?)`),
		now, false, now.Add(-sessionRetention))
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions rows affected: %w", err)
	}
	return n, nil
}
