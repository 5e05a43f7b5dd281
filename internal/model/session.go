package model

import "time"

// AuthSession is a persistent login session row. Only the SHA-256 hash of
// the raw token is stored; the raw token exists exactly once, in the value
// returned at creation and in the client's cookie.
type AuthSession struct {
	ID           int64     `json:"session_id" db:"session_id"`
	UserType     UserType  `json:"user_type" db:"user_type"`
	UserID       int64     `json:"user_id" db:"user_id"`
	TokenHash    string    `json:"-" db:"token_hash"`
	IPAddress    string    `json:"ip_address" db:"ip_address"`
	UserAgent    string    `json:"user_agent" db:"user_agent"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastActivity time.Time `json:"last_activity" db:"last_activity"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// User returns the owner reference for this session.
func (s *AuthSession) User() UserRef {
	return UserRef{Type: s.UserType, ID: s.UserID}
}

// Usable reports whether the session can authenticate a request at the
// given instant: active and not yet expired.
func (s *AuthSession) Usable(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}
