package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/binfleet/binfleet/internal/model"
)

// CreateAdmin inserts a new admin account. ID, CreatedAt, and UpdatedAt are
// populated on the passed struct after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if admin.Status == "" {
		admin.Status = string(model.StatusActive)
	}

	const q = `INSERT INTO admins
		(first_name, last_name, email, password, status, created_at, updated_at)
		VALUES
		(:first_name, :last_name, :email, :password, :status, :created_at, :updated_at)`

	id, err := s.insertReturningID(ctx, q, "admin_id", admin)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdminByEmail returns an admin by email address, regardless of status.
// Login handlers check status themselves so the rejection message stays
// uniform across unknown and inactive accounts.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	err := s.db.GetContext(ctx, &admin, s.rebind("SELECT * FROM admins WHERE email = ?"), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// GetActiveAdmin returns an admin by ID only if the account is active.
// Session restoration uses this so that deactivated or deleted accounts
// stop authenticating even while holding a valid token.
func (s *Store) GetActiveAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	err := s.db.GetContext(ctx, &admin,
		s.rebind("SELECT * FROM admins WHERE admin_id = ? AND status = 'active'"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active admin: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts ordered by email.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins, "SELECT * FROM admins ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// HasAnyAdmin reports whether at least one admin account exists. Used on
// startup to warn when the instance has no way to be administered.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admins"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// UpdateAdminPassword replaces the stored hash for an admin. Also invoked by
// the legacy-hash migration path after a successful login.
func (s *Store) UpdateAdminPassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE admins SET password = ?, updated_at = ? WHERE admin_id = ?"),
		hash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAdminStatus activates or deactivates an admin account.
func (s *Store) SetAdminStatus(ctx context.Context, id int64, status model.AccountStatus) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE admins SET status = ?, updated_at = ? WHERE admin_id = ?"),
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set admin status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
