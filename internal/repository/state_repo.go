package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smokemate/internal/models"
)

type RunStateSQLite struct {
	db *sql.DB
}

func NewRunStateSQLite(db *sql.DB) *RunStateSQLite {
	return &RunStateSQLite{db: db}
}

const (
	runStateRowID = 1

	upsertRunStateSQL = `
		INSERT INTO run_state (id, run_started_at, last_running, observed, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_started_at=excluded.run_started_at,
			last_running=excluded.last_running,
			observed=excluded.observed,
			updated_at=excluded.updated_at
	`

	selectRunStateSQL = `
		SELECT run_started_at, last_running, observed, updated_at
		FROM run_state WHERE id=?
	`
)

// Save updates or inserts the single run_state row.
func (r *RunStateSQLite) Save(ctx context.Context, s models.RunState) error {
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	var started any
	if s.HasRun() {
		started = formatTS(s.RunStartedAt)
	}
	_, err := r.db.ExecContext(ctx, upsertRunStateSQL,
		runStateRowID,
		started,
		s.LastRunning,
		s.Observed,
		formatTS(updated),
	)
	return err
}

// Load fetches the run_state row. A missing row is the zero state.
func (r *RunStateSQLite) Load(ctx context.Context) (models.RunState, error) {
	var (
		s       models.RunState
		started sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectRunStateSQL, runStateRowID).
		Scan(&started, &s.LastRunning, &s.Observed, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RunState{}, nil
		}
		return models.RunState{}, err
	}
	if started.Valid {
		s.RunStartedAt = started.Time.UTC()
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
