package model

import "time"

// Notification is an in-app message for an admin or janitor, optionally
// tied to a bin. Writes are best-effort: a failed insert never fails the
// operation that produced it.
type Notification struct {
	ID        int64     `json:"notification_id" db:"notification_id"`
	BinID     *int64    `json:"bin_id,omitempty" db:"bin_id"`
	UserType  UserType  `json:"user_type" db:"user_type"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
