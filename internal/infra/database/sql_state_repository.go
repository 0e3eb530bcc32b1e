// internal/infra/database/sql_state_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"class_availability_notifier/internal/domain/availability"

	"github.com/sirupsen/logrus"
)

var ErrStateNotFound = fmt.Errorf("watch state not found")

// Fixed width and UTC so the text column sorts chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStateRepository stores the watch state and check history in PostgreSQL
// or SQLite, keyed so several watched classes can share one database.
type SQLStateRepository struct {
	db     *sql.DB
	key    string
	logger *logrus.Entry
}

func NewSQLStateRepository(db *sql.DB, key string, logger *logrus.Entry) *SQLStateRepository {
	return &SQLStateRepository{db: db, key: key, logger: logger}
}

func (r *SQLStateRepository) Read(ctx context.Context) availability.PersistedState {
	state, err := r.get(ctx)
	if err != nil {
		if err != ErrStateNotFound {
			r.logger.WithError(err).WithField("state_key", r.key).Warn("Could not read stored state, starting fresh")
		}
		return availability.DefaultState()
	}
	return state
}

func (r *SQLStateRepository) get(ctx context.Context) (availability.PersistedState, error) {
	query := `SELECT last_status, last_checked_at FROM watch_state WHERE state_key = $1`
	var (
		status    string
		checkedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, r.key).Scan(&status, &checkedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return availability.PersistedState{}, ErrStateNotFound
		}
		return availability.PersistedState{}, fmt.Errorf("error getting watch state: %w", err)
	}

	logCtx := r.logger.WithField("state_key", r.key)
	state := availability.PersistedState{LastStatus: availability.Normalize(status)}
	if !state.LastStatus.IsKnown() {
		logCtx.WithField("last_status", state.LastStatus).Warn("Stored status is not a known status")
	}
	if checkedAt.Valid && checkedAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, checkedAt.String)
		if err != nil {
			logCtx.WithError(err).Warn("Ignoring unreadable last_checked_at")
		} else {
			state.LastCheckedAt = &t
		}
	}
	return state, nil
}

func (r *SQLStateRepository) Write(ctx context.Context, state availability.PersistedState) error {
	query := `INSERT INTO watch_state (state_key, last_status, last_checked_at)
               VALUES ($1, $2, $3)
               ON CONFLICT (state_key) DO UPDATE
               SET last_status = EXCLUDED.last_status, last_checked_at = EXCLUDED.last_checked_at`
	var checkedAt sql.NullString
	if state.LastCheckedAt != nil {
		checkedAt = sql.NullString{String: formatTime(*state.LastCheckedAt), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, r.key, string(state.LastStatus), checkedAt); err != nil {
		return fmt.Errorf("error writing watch state: %w", err)
	}
	return nil
}

func (r *SQLStateRepository) AppendCheck(ctx context.Context, e availability.CheckEntry) error {
	query := `INSERT INTO check_history (cycle_id, state_key, target, status, raw_status, notified, checked_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		e.CycleID, r.key, e.Target, string(e.Status), e.RawStatus, e.Notified, formatTime(e.CheckedAt))
	if err != nil {
		return fmt.Errorf("error appending check history: %w", err)
	}
	return nil
}

// ListChecks returns the newest entries first.
func (r *SQLStateRepository) ListChecks(ctx context.Context, limit int) ([]availability.CheckEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT cycle_id, target, status, raw_status, notified, checked_at
               FROM check_history WHERE state_key = $1
               ORDER BY checked_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, r.key, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing check history: %w", err)
	}
	defer rows.Close()

	var entries []availability.CheckEntry
	for rows.Next() {
		var (
			e         availability.CheckEntry
			status    string
			checkedAt string
		)
		if err := rows.Scan(&e.CycleID, &e.Target, &status, &e.RawStatus, &e.Notified, &checkedAt); err != nil {
			return nil, fmt.Errorf("error scanning check history row: %w", err)
		}
		e.Status = availability.Normalize(status)
		if e.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt); err != nil {
			return nil, fmt.Errorf("error parsing checked_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check history: %w", err)
	}
	return entries, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
