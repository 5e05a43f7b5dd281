package model

import "time"

// Collection records a janitor emptying a bin. Inserted in the same
// transaction that resets the bin and completes the pending assignment.
type Collection struct {
	ID              int64     `json:"collection_id" db:"collection_id"`
	BinID           int64     `json:"bin_id" db:"bin_id"`
	JanitorID       int64     `json:"janitor_id" db:"janitor_id"`
	CollectedAt     time.Time `json:"collected_at" db:"collected_at"`
	FillLevelBefore int       `json:"fill_level_before" db:"fill_level_before"`
	Notes           string    `json:"notes" db:"notes"`
}
