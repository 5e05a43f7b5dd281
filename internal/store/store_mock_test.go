package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

// newMockStore wires a Store onto a sqlmock connection. The SQLite paths
// above cannot produce driver failures on demand; these tests cover how
// errors surface to callers.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{db: sqlx.NewDb(db, "sqlmock"), driver: DriverSQLite}, mock
}

func TestValidateTokenStorageError(t *testing.T) {
	s, mock := newMockStore(t)
	dbErr := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM auth_sessions WHERE token_hash = ?")).
		WillReturnError(dbErr)

	_, err := s.ValidateToken(context.Background(), "deadbeef")
	if err == nil {
		t.Fatal("expected error")
	}
	// A broken database must not look like a missing session: callers
	// treat ErrNotFound as a clean miss and would silently log users out.
	if errors.Is(err, ErrNotFound) {
		t.Error("storage error reported as ErrNotFound")
	}
	if !errors.Is(err, dbErr) {
		t.Errorf("cause not wrapped: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCleanupSessionsReportsRowCount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM auth_sessions").
		WillReturnResult(sqlmock.NewResult(0, 17))

	n, err := s.CleanupSessions(context.Background())
	if err != nil {
		t.Fatalf("CleanupSessions: %v", err)
	}
	if n != 17 {
		t.Errorf("cleaned = %d, want 17", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeactivateSessionWrapsExecError(t *testing.T) {
	s, mock := newMockStore(t)
	dbErr := errors.New("disk I/O error")

	mock.ExpectExec("UPDATE auth_sessions SET is_active").
		WillReturnError(dbErr)

	err := s.DeactivateSession(context.Background(), "deadbeef")
	if !errors.Is(err, dbErr) {
		t.Errorf("cause not wrapped: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
