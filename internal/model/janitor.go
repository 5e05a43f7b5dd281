package model

import "time"

// Janitor is a field-worker account. Same hash conventions as Admin.
type Janitor struct {
	ID           int64     `json:"janitor_id" db:"janitor_id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"` // opaque hash, never expose
	Status       string    `json:"status" db:"status"`
	Phone        string    `json:"phone" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the display name used in session state and responses.
func (j *Janitor) FullName() string {
	return j.FirstName + " " + j.LastName
}
