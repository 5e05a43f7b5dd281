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

// CollectionFilter narrows ListCollections. Zero values mean "no constraint".
type CollectionFilter struct {
	BinID     int64
	JanitorID int64
	Since     time.Time
	Limit     int
	Offset    int
}

// RecordCollection performs the collection triple atomically: reset the bin,
// insert the collection row, and complete the janitor's pending assignment.
// All three writes succeed or none do.
func (s *Store) RecordCollection(ctx context.Context, binID, janitorID int64, notes string) (*model.Collection, error) {
	now := time.Now().UTC()
	var coll model.Collection

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var bin model.Bin
		if err := tx.GetContext(ctx, &bin, tx.Rebind("SELECT * FROM bins WHERE bin_id = ?"), binID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get bin for collection: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			tx.Rebind("UPDATE bins SET status = ?, fill_level = 0, updated_at = ? WHERE bin_id = ?"),
			model.BinStatusEmpty, now, binID); err != nil {
			return fmt.Errorf("reset bin: %w", err)
		}

		coll = model.Collection{
			BinID:           binID,
			JanitorID:       janitorID,
			CollectedAt:     now,
			FillLevelBefore: bin.FillLevel,
			Notes:           notes,
		}
		res, err := tx.NamedExecContext(ctx, `INSERT INTO collections
			(bin_id, janitor_id, collected_at, fill_level_before, notes)
			VALUES (:bin_id, :janitor_id, :collected_at, :fill_level_before, :notes)`, coll)
		if err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}
		if s.driver != DriverPostgres {
			if id, err := res.LastInsertId(); err == nil {
				coll.ID = id
			}
		}

		// Complete the pending assignment if one exists. No pending
		// assignment is fine: janitors may collect unprompted.
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE assignments SET status = ?, completed_at = ?
				WHERE bin_id = ? AND janitor_id = ? AND status = ?`),
			model.AssignmentCompleted, now, binID, janitorID, model.AssignmentPending); err != nil {
			return fmt.Errorf("complete assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &coll, nil
}

// ListCollections returns collections matching the filter, newest first.
func (s *Store) ListCollections(ctx context.Context, f CollectionFilter) ([]model.Collection, error) {
	q := "SELECT * FROM collections"
	var args []interface{}
	var where []string

	if f.BinID > 0 {
		where = append(where, "bin_id = ?")
		args = append(args, f.BinID)
	}
	if f.JanitorID > 0 {
		where = append(where, "janitor_id = ?")
		args = append(args, f.JanitorID)
	}
	if !f.Since.IsZero() {
		where = append(where, "collected_at >= ?")
		args = append(args, f.Since)
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY collected_at DESC"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var collections []model.Collection
	if err := s.db.SelectContext(ctx, &collections, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}
