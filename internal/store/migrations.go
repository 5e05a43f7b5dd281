package store

import (
	"fmt"
	"strings"
)

// dialect holds the few DDL fragments that differ between backends.
type dialect struct {
	pk        string // auto-incrementing primary key column type
	fk        string // integer type used for foreign keys to a pk column
	timestamp string
}

func dialectFor(driver string) dialect {
	switch driver {
	case DriverMySQL:
		return dialect{
			pk:        "BIGINT PRIMARY KEY AUTO_INCREMENT",
			fk:        "BIGINT",
			timestamp: "TIMESTAMP",
		}
	case DriverPostgres:
		return dialect{
			pk:        "BIGSERIAL PRIMARY KEY",
			fk:        "BIGINT",
			timestamp: "TIMESTAMP",
		}
	default: // sqlite
		return dialect{
			pk:        "INTEGER PRIMARY KEY AUTOINCREMENT",
			fk:        "INTEGER",
			timestamp: "TIMESTAMP",
		}
	}
}

func (s *Store) migrate() error {
	d := dialectFor(s.driver)

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			admin_id {{pk}},
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS janitors (
			janitor_id {{pk}},
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS auth_sessions (
			session_id {{pk}},
			user_type VARCHAR(16) NOT NULL,
			user_id {{fk}} NOT NULL,
			token_hash VARCHAR(64) UNIQUE NOT NULL,
			ip_address VARCHAR(45) NOT NULL DEFAULT '',
			user_agent VARCHAR(255) NOT NULL DEFAULT '',
			expires_at {{ts}} NOT NULL,
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_activity {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS bins (
			bin_id {{pk}},
			code VARCHAR(32) UNIQUE NOT NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			capacity_litres {{fk}} NOT NULL DEFAULT 240,
			fill_level {{fk}} NOT NULL DEFAULT 0,
			status VARCHAR(16) NOT NULL DEFAULT 'empty',
			assigned_janitor_id {{fk}} REFERENCES janitors(janitor_id) ON DELETE SET NULL,
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS assignments (
			assignment_id {{pk}},
			bin_id {{fk}} NOT NULL REFERENCES bins(bin_id) ON DELETE CASCADE,
			janitor_id {{fk}} NOT NULL REFERENCES janitors(janitor_id) ON DELETE CASCADE,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			assigned_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at {{ts}}
		)`,

		`CREATE TABLE IF NOT EXISTS collections (
			collection_id {{pk}},
			bin_id {{fk}} NOT NULL REFERENCES bins(bin_id) ON DELETE CASCADE,
			janitor_id {{fk}} NOT NULL REFERENCES janitors(janitor_id) ON DELETE CASCADE,
			collected_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
			fill_level_before {{fk}} NOT NULL DEFAULT 0,
			notes VARCHAR(500) NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			notification_id {{pk}},
			bin_id {{fk}} REFERENCES bins(bin_id) ON DELETE SET NULL,
			user_type VARCHAR(16) NOT NULL,
			user_id {{fk}} NOT NULL,
			message VARCHAR(500) NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS reports (
			report_id {{pk}},
			title VARCHAR(255) NOT NULL,
			period_start {{ts}} NOT NULL,
			period_end {{ts}} NOT NULL,
			generated_by {{fk}} NOT NULL,
			created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_auth_sessions_hash ON auth_sessions(token_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_sessions_user ON auth_sessions(user_type, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_janitor ON assignments(janitor_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_collections_bin ON collections(bin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_type, user_id, is_read)`,
	}

	r := strings.NewReplacer("{{pk}}", d.pk, "{{fk}}", d.fk, "{{ts}}", d.timestamp)

	for _, m := range migrations {
		stmt := r.Replace(m)
		if s.driver == DriverMySQL && strings.HasPrefix(stmt, "CREATE INDEX IF NOT EXISTS") {
			// MySQL has no IF NOT EXISTS for indexes; duplicates are benign
			// because migrations only run at startup against our own schema.
			stmt = strings.Replace(stmt, "IF NOT EXISTS ", "", 1)
			if _, err := s.db.Exec(stmt); err != nil {
				if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
					continue
				}
				return fmt.Errorf("migration failed: %s: %w", firstLine(stmt), err)
			}
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i > 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}
