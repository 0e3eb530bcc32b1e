package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewSQLiteConnection opens a SQLite database file (or ":memory:").
// SQLite allows one writer, so the pool is limited to a single connection.
func NewSQLiteConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS watch_state (
	state_key TEXT PRIMARY KEY,
	last_status TEXT NOT NULL,
	last_checked_at TEXT
)`,
	`CREATE TABLE IF NOT EXISTS check_history (
	cycle_id TEXT PRIMARY KEY,
	state_key TEXT NOT NULL,
	target TEXT NOT NULL,
	status TEXT NOT NULL,
	raw_status TEXT NOT NULL DEFAULT '',
	notified BOOLEAN NOT NULL DEFAULT FALSE,
	checked_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_check_history_key_checked ON check_history(state_key, checked_at)`,
}

// Migrate creates the tables used by the SQL state repository.
// The statements are valid for both PostgreSQL and SQLite.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
