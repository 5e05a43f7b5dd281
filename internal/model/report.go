package model

import "time"

// Report is a generated summary over a reporting period.
type Report struct {
	ID          int64     `json:"report_id" db:"report_id"`
	Title       string    `json:"title" db:"title"`
	PeriodStart time.Time `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time `json:"period_end" db:"period_end"`
	GeneratedBy int64     `json:"generated_by" db:"generated_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DashboardStats holds the counters shown on the admin dashboard.
type DashboardStats struct {
	TotalBins           int64 `json:"total_bins"`
	FullBins            int64 `json:"full_bins"`
	MaintenanceBins     int64 `json:"maintenance_bins"`
	ActiveJanitors      int64 `json:"active_janitors"`
	CollectionsToday    int64 `json:"collections_today"`
	PendingAssignments  int64 `json:"pending_assignments"`
	UnreadNotifications int64 `json:"unread_notifications"`
}
