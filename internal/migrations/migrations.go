package migrations

import (
	"database/sql"
	"errors"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Create analytics table",
		Up: `
			CREATE TABLE IF NOT EXISTS analytics (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				url TEXT NOT NULL,
				host TEXT NOT NULL,
				normalized_path TEXT NOT NULL,
				method TEXT NOT NULL,
				status_code INTEGER NOT NULL,
				request_size INTEGER NOT NULL DEFAULT 0,
				response_size INTEGER NOT NULL DEFAULT 0,
				duration_ms INTEGER NOT NULL,
				error_message TEXT,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX IF NOT EXISTS idx_analytics_timestamp ON analytics(timestamp);
			CREATE INDEX IF NOT EXISTS idx_analytics_status_code ON analytics(status_code);
		`,
		Down: `
			DROP TABLE IF EXISTS analytics;
		`,
	},
	{
		Version: 2,
		Name:    "Add composite index for endpoint statistics",
		Up: `
			-- Matches the GROUP BY of the per-endpoint stats query
			CREATE INDEX IF NOT EXISTS idx_analytics_endpoint ON analytics(host, normalized_path, method, status_code);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_analytics_endpoint;
		`,
	},
	{
		Version: 3,
		Name:    "Create query bookmarks table",
		Up: `
			CREATE TABLE IF NOT EXISTS query_bookmarks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				expression TEXT NOT NULL UNIQUE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
		Down: `
			DROP TABLE IF EXISTS query_bookmarks;
		`,
	},
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	return RunTo(db, AllMigrations)
}

// RunTo applies the given migrations that are newer than the recorded
// version, in order. Each migration and its bookkeeping row commit together.
func RunTo(db *sql.DB, migrations []Migration) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := apply(db, migration); err != nil {
			return err
		}
	}

	return nil
}

func apply(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start migration %d: %w", migration.Version, err)
	}

	if _, err := tx.Exec(migration.Up); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
	}

	_, err = tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version,
		migration.Name,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}
	return nil
}

// CurrentVersion returns the current database schema version
func CurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return version, nil
}
