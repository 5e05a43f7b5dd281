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

// BinFilter narrows ListBins. Zero values mean "no constraint".
type BinFilter struct {
	Status    string
	JanitorID int64
	Limit     int
	Offset    int
}

// CreateBin inserts a new bin. ID, CreatedAt, and UpdatedAt are populated
// on the passed struct after a successful insert.
func (s *Store) CreateBin(ctx context.Context, bin *model.Bin) error {
	now := time.Now().UTC()
	bin.CreatedAt = now
	bin.UpdatedAt = now
	if bin.Status == "" {
		bin.Status = model.BinStatusEmpty
	}

	const q = `INSERT INTO bins
		(code, location, capacity_litres, fill_level, status, assigned_janitor_id, created_at, updated_at)
		VALUES
		(:code, :location, :capacity_litres, :fill_level, :status, :assigned_janitor_id, :created_at, :updated_at)`

	id, err := s.insertReturningID(ctx, q, "bin_id", bin)
	if err != nil {
		return fmt.Errorf("insert bin: %w", err)
	}
	bin.ID = id
	return nil
}

// GetBin returns a bin by ID.
func (s *Store) GetBin(ctx context.Context, id int64) (*model.Bin, error) {
	var bin model.Bin
	err := s.db.GetContext(ctx, &bin, s.rebind("SELECT * FROM bins WHERE bin_id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bin: %w", err)
	}
	return &bin, nil
}

// GetBinByCode returns a bin by its unique code.
func (s *Store) GetBinByCode(ctx context.Context, code string) (*model.Bin, error) {
	var bin model.Bin
	err := s.db.GetContext(ctx, &bin, s.rebind("SELECT * FROM bins WHERE code = ?"), code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bin by code: %w", err)
	}
	return &bin, nil
}

// ListBins returns bins matching the filter, ordered by code.
func (s *Store) ListBins(ctx context.Context, f BinFilter) ([]model.Bin, error) {
	q := "SELECT * FROM bins"
	var args []interface{}
	var where []string

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.JanitorID > 0 {
		where = append(where, "assigned_janitor_id = ?")
		args = append(args, f.JanitorID)
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY code"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var bins []model.Bin
	if err := s.db.SelectContext(ctx, &bins, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list bins: %w", err)
	}
	return bins, nil
}

// UpdateBin updates the mutable fields of a bin.
func (s *Store) UpdateBin(ctx context.Context, bin *model.Bin) error {
	bin.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, `UPDATE bins SET
		code = :code, location = :location, capacity_litres = :capacity_litres,
		fill_level = :fill_level, status = :status,
		assigned_janitor_id = :assigned_janitor_id, updated_at = :updated_at
		WHERE bin_id = :bin_id`, bin)
	if err != nil {
		return fmt.Errorf("update bin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBin removes a bin. Assignments and collections cascade.
func (s *Store) DeleteBin(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM bins WHERE bin_id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete bin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignJanitor sets the bin's assignee and opens a pending assignment, in
// one transaction so the two can never disagree.
func (s *Store) AssignJanitor(ctx context.Context, binID, janitorID int64) error {
	now := time.Now().UTC()
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			tx.Rebind("UPDATE bins SET assigned_janitor_id = ?, updated_at = ? WHERE bin_id = ?"),
			janitorID, now, binID)
		if err != nil {
			return fmt.Errorf("assign bin: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}

		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO assignments (bin_id, janitor_id, status, assigned_at)
				VALUES (?, ?, ?, ?)`),
			binID, janitorID, model.AssignmentPending, now)
		if err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		return nil
	})
}

// ListAssignmentsForJanitor returns a janitor's assignments, optionally
// restricted to one status, newest first.
func (s *Store) ListAssignmentsForJanitor(ctx context.Context, janitorID int64, status string) ([]model.Assignment, error) {
	q := "SELECT * FROM assignments WHERE janitor_id = ?"
	args := []interface{}{janitorID}
	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}
	q += " ORDER BY assigned_at DESC"

	var assignments []model.Assignment
	if err := s.db.SelectContext(ctx, &assignments, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}
