package store

import (
	"fmt"
)

// migration is one forward-only schema step. Migrations only ever add
// tables, columns with defaults, or indexes; existing records are never
// rewritten.
type migration struct {
	version     int
	description string
	sql         string
}

var migrations = []migration{
	{
		version:     1,
		description: "Initial schema: clients, sessions, goals",
		sql: `
CREATE TABLE IF NOT EXISTS clients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    dob TEXT,
    notes TEXT,
    behaviors TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    behaviors TEXT NOT NULL DEFAULT '[]',
    notes TEXT,
    meta TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_sessions_client ON sessions(client_id, start_time);

CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    goal_code TEXT NOT NULL,
    category TEXT,
    description TEXT,
    measurement_type TEXT NOT NULL,
    baseline REAL NOT NULL,
    mastery_criteria REAL NOT NULL,
    progression_method TEXT NOT NULL,
    stos TEXT NOT NULL DEFAULT '[]',
    progress TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'not_started',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_client ON goals(client_id);
`,
	},
}

// applyMigrations brings the schema up to the latest version, recording each
// applied step in schema_migrations.
func (s *Store) applyMigrations() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        description TEXT,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := s.schemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			m.version, m.description); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// schemaVersion returns the highest applied migration version, 0 when none.
func (s *Store) schemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
