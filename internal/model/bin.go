package model

import "time"

// Bin status values. A bin moves between these as fill level changes and
// as janitors collect or flag it for maintenance.
const (
	BinStatusEmpty       = "empty"
	BinStatusPartial     = "partial"
	BinStatusFull        = "full"
	BinStatusMaintenance = "maintenance"
)

// Bin is a tracked waste bin.
type Bin struct {
	ID                int64     `json:"bin_id" db:"bin_id"`
	Code              string    `json:"code" db:"code"`
	Location          string    `json:"location" db:"location"`
	CapacityLitres    int       `json:"capacity_litres" db:"capacity_litres"`
	FillLevel         int       `json:"fill_level" db:"fill_level"` // percent 0-100
	Status            string    `json:"status" db:"status"`
	AssignedJanitorID *int64    `json:"assigned_janitor_id,omitempty" db:"assigned_janitor_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// ValidBinStatus reports whether s is a recognized bin status.
func ValidBinStatus(s string) bool {
	switch s {
	case BinStatusEmpty, BinStatusPartial, BinStatusFull, BinStatusMaintenance:
		return true
	}
	return false
}

// Assignment links a bin to the janitor responsible for its next collection.
type Assignment struct {
	ID          int64      `json:"assignment_id" db:"assignment_id"`
	BinID       int64      `json:"bin_id" db:"bin_id"`
	JanitorID   int64      `json:"janitor_id" db:"janitor_id"`
	Status      string     `json:"status" db:"status"` // pending | completed
	AssignedAt  time.Time  `json:"assigned_at" db:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

const (
	AssignmentPending   = "pending"
	AssignmentCompleted = "completed"
)
