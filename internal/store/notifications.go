package store

import (
	"context"
	"fmt"
	"time"

	"github.com/binfleet/binfleet/internal/model"
)

// CreateNotification inserts a notification row. Callers on best-effort
// paths log and swallow the error rather than failing their primary
// operation.
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	n.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO notifications
		(bin_id, user_type, user_id, message, is_read, created_at)
		VALUES
		(:bin_id, :user_type, :user_id, :message, :is_read, :created_at)`

	id, err := s.insertReturningID(ctx, q, "notification_id", n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID = id
	return nil
}

// ListNotificationsForUser returns an owner's notifications, newest first.
func (s *Store) ListNotificationsForUser(ctx context.Context, user model.UserRef, limit int) ([]model.Notification, error) {
	q := "SELECT * FROM notifications WHERE user_type = ? AND user_id = ? ORDER BY created_at DESC"
	args := []interface{}{string(user.Type), user.ID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	var notifications []model.Notification
	if err := s.db.SelectContext(ctx, &notifications, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", user, err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one of the owner's notifications read. The
// owner constraint stops a user from acknowledging someone else's rows.
func (s *Store) MarkNotificationRead(ctx context.Context, user model.UserRef, id int64) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE notifications SET is_read = ? WHERE notification_id = ? AND user_type = ? AND user_id = ?"),
		true, id, string(user.Type), user.ID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnreadNotifications returns the owner's unread count.
func (s *Store) CountUnreadNotifications(ctx context.Context, user model.UserRef) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		s.rebind("SELECT COUNT(*) FROM notifications WHERE user_type = ? AND user_id = ? AND is_read = ?"),
		string(user.Type), user.ID, false)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
