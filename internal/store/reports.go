package store

import (
	"context"
	"fmt"
	"time"

	"github.com/binfleet/binfleet/internal/model"
)

// CreateReport inserts a report row.
func (s *Store) CreateReport(ctx context.Context, r *model.Report) error {
	r.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO reports
		(title, period_start, period_end, generated_by, created_at)
		VALUES
		(:title, :period_start, :period_end, :generated_by, :created_at)`

	id, err := s.insertReturningID(ctx, q, "report_id", r)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	r.ID = id
	return nil
}

// ListReports returns all reports, newest first.
func (s *Store) ListReports(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	if err := s.db.SelectContext(ctx, &reports, "SELECT * FROM reports ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// DashboardStats computes the counters for the admin dashboard.
func (s *Store) DashboardStats(ctx context.Context, user model.UserRef) (*model.DashboardStats, error) {
	var stats model.DashboardStats

	counters := []struct {
		dest  *int64
		query string
		args  []interface{}
	}{
		{&stats.TotalBins, "SELECT COUNT(*) FROM bins", nil},
		{&stats.FullBins, "SELECT COUNT(*) FROM bins WHERE status = ?", []interface{}{model.BinStatusFull}},
		{&stats.MaintenanceBins, "SELECT COUNT(*) FROM bins WHERE status = ?", []interface{}{model.BinStatusMaintenance}},
		{&stats.ActiveJanitors, "SELECT COUNT(*) FROM janitors WHERE status = 'active'", nil},
		{&stats.CollectionsToday, "SELECT COUNT(*) FROM collections WHERE collected_at >= ?",
			[]interface{}{startOfToday()}},
		{&stats.PendingAssignments, "SELECT COUNT(*) FROM assignments WHERE status = ?",
			[]interface{}{model.AssignmentPending}},
		{&stats.UnreadNotifications, "SELECT COUNT(*) FROM notifications WHERE user_type = ? AND user_id = ? AND is_read = ?",
			[]interface{}{string(user.Type), user.ID, false}},
	}

	for _, c := range counters {
		if err := s.db.GetContext(ctx, c.dest, s.rebind(c.query), c.args...); err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}
	}
	return &stats, nil
}

func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
