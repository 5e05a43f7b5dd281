package model

import "fmt"

// UserType discriminates the two account tables a session or notification
// row can point at.
type UserType string

const (
	UserTypeAdmin   UserType = "admin"
	UserTypeJanitor UserType = "janitor"
)

// Valid reports whether t is a recognized user type.
func (t UserType) Valid() bool {
	return t == UserTypeAdmin || t == UserTypeJanitor
}

// UserRef identifies an account across both account tables.
type UserRef struct {
	Type UserType `json:"user_type" db:"user_type"`
	ID   int64    `json:"user_id" db:"user_id"`
}

func (u UserRef) String() string {
	return fmt.Sprintf("%s/%d", u.Type, u.ID)
}

// AccountStatus is the lifecycle state of an admin or janitor account.
// Inactive accounts keep their rows but cannot authenticate.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
)

// Identity is the resolved owner of an authenticated request, populated
// once per request from the session cookie.
type Identity struct {
	User  UserRef `json:"user"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
}

// IsAdmin reports whether the identity belongs to an admin account.
// Safe to call on a nil receiver.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.User.Type == UserTypeAdmin
}

// IsJanitor reports whether the identity belongs to a janitor account.
// Safe to call on a nil receiver.
func (id *Identity) IsJanitor() bool {
	return id != nil && id.User.Type == UserTypeJanitor
}
