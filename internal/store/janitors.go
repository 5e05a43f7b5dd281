package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/binfleet/binfleet/internal/model"
)

// CreateJanitor inserts a new janitor account. ID, CreatedAt, and UpdatedAt
// are populated on the passed struct after a successful insert.
func (s *Store) CreateJanitor(ctx context.Context, j *model.Janitor) error {
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = string(model.StatusActive)
	}

	const q = `INSERT INTO janitors
		(first_name, last_name, email, password, status, phone, created_at, updated_at)
		VALUES
		(:first_name, :last_name, :email, :password, :status, :phone, :created_at, :updated_at)`

	id, err := s.insertReturningID(ctx, q, "janitor_id", j)
	if err != nil {
		return fmt.Errorf("insert janitor: %w", err)
	}
	j.ID = id
	return nil
}

// GetJanitorByEmail returns a janitor by email address, regardless of status.
func (s *Store) GetJanitorByEmail(ctx context.Context, email string) (*model.Janitor, error) {
	var j model.Janitor
	err := s.db.GetContext(ctx, &j, s.rebind("SELECT * FROM janitors WHERE email = ?"), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get janitor by email: %w", err)
	}
	return &j, nil
}

// GetJanitor returns a janitor by ID regardless of status.
func (s *Store) GetJanitor(ctx context.Context, id int64) (*model.Janitor, error) {
	var j model.Janitor
	err := s.db.GetContext(ctx, &j, s.rebind("SELECT * FROM janitors WHERE janitor_id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get janitor: %w", err)
	}
	return &j, nil
}

// GetActiveJanitor returns a janitor by ID only if the account is active.
func (s *Store) GetActiveJanitor(ctx context.Context, id int64) (*model.Janitor, error) {
	var j model.Janitor
	err := s.db.GetContext(ctx, &j,
		s.rebind("SELECT * FROM janitors WHERE janitor_id = ? AND status = 'active'"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active janitor: %w", err)
	}
	return &j, nil
}

// ListJanitors returns janitor accounts ordered by last name, first name.
func (s *Store) ListJanitors(ctx context.Context) ([]model.Janitor, error) {
	var janitors []model.Janitor
	if err := s.db.SelectContext(ctx, &janitors,
		"SELECT * FROM janitors ORDER BY last_name, first_name"); err != nil {
		return nil, fmt.Errorf("list janitors: %w", err)
	}
	return janitors, nil
}

// UpdateJanitorProfile updates name, email, and phone for a janitor.
func (s *Store) UpdateJanitorProfile(ctx context.Context, j *model.Janitor) error {
	j.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, `UPDATE janitors SET
		first_name = :first_name, last_name = :last_name, email = :email,
		phone = :phone, updated_at = :updated_at
		WHERE janitor_id = :janitor_id`, j)
	if err != nil {
		return fmt.Errorf("update janitor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateJanitorPassword replaces the stored hash for a janitor. Also invoked
// by the legacy-hash migration path after a successful login.
func (s *Store) UpdateJanitorPassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE janitors SET password = ?, updated_at = ? WHERE janitor_id = ?"),
		hash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update janitor password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetJanitorStatus activates or deactivates a janitor account.
func (s *Store) SetJanitorStatus(ctx context.Context, id int64, status model.AccountStatus) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE janitors SET status = ?, updated_at = ? WHERE janitor_id = ?"),
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set janitor status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteJanitor removes a janitor account. The only physical identity
// deletion in the system; sessions for the account are deactivated first so
// outstanding tokens stop restoring immediately, and assigned bins are
// released back to unassigned. Assignments and collections cascade.
func (s *Store) DeleteJanitor(ctx context.Context, id int64) error {
	if err := s.DeactivateSessionsForUser(ctx, model.UserRef{Type: model.UserTypeJanitor, ID: id}); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind("UPDATE bins SET assigned_janitor_id = NULL, updated_at = ? WHERE assigned_janitor_id = ?"),
			time.Now().UTC(), id); err != nil {
			return fmt.Errorf("release bins: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM janitors WHERE janitor_id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete janitor: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
