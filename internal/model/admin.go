package model

import "time"

// Admin is an administrative account. The password column holds an opaque
// hash whose algorithm is inferred from its shape at verification time:
// bcrypt for current accounts, 64-hex SHA-256 or 32-hex MD5 for rows that
// predate the salted scheme and are migrated on first successful login.
type Admin struct {
	ID           int64     `json:"admin_id" db:"admin_id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"` // opaque hash, never expose
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the display name used in session state and responses.
func (a *Admin) FullName() string {
	return a.FirstName + " " + a.LastName
}
