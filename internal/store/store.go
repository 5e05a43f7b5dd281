package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// PoolConfig controls the connection pool for server-backed databases.
// SQLite ignores it and runs with a single connection.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Store is the single data-access layer: identity tables, auth sessions,
// and the fleet CRUD tables all live behind it.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New opens a database connection and runs migrations. The driver selects
// the SQL dialect; dsn ":memory:" with the sqlite driver yields an
// in-memory database, which the tests rely on.
func New(driver, dsn string, pool PoolConfig) (*Store, error) {
	sqlDriver := driver
	switch driver {
	case DriverSQLite:
		if dsn == "" || dsn == ":memory:" {
			dsn = ":memory:?_journal_mode=WAL"
		}
	case DriverMySQL:
		// mysql driver name matches
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.Connect(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		if pool.MaxOpenConns > 0 {
			db.SetMaxOpenConns(pool.MaxOpenConns)
		}
		if pool.MaxIdleConns > 0 {
			db.SetMaxIdleConns(pool.MaxIdleConns)
		}
		if pool.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(pool.ConnMaxLifetime)
		}
		if pool.ConnMaxIdleTime > 0 {
			db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
		}
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// NewMemory opens a fresh in-memory SQLite store. Used by tests and by
// `binfleet serve` when no DSN is configured.
func NewMemory() (*Store, error) {
	return New(DriverSQLite, ":memory:", PoolConfig{})
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// rebind translates ?-placeholders to the driver's bindvar style.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// insertReturningID runs a named insert and returns the generated key.
// database/sql cannot report LastInsertId for Postgres, so that path
// appends a RETURNING clause and scans the key instead.
func (s *Store) insertReturningID(ctx context.Context, query, idCol string, arg interface{}) (int64, error) {
	if s.driver == DriverPostgres {
		rows, err := s.db.NamedQueryContext(ctx, query+" RETURNING "+idCol, arg)
		if err != nil {
			return 0, err
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return 0, err
			}
			return 0, sql.ErrNoRows
		}
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := s.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// inTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
