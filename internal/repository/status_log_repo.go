package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"smokemate/internal/models"
)

type StatusLogSQLite struct {
	db *sql.DB
}

func NewStatusLogSQLite(db *sql.DB) *StatusLogSQLite { return &StatusLogSQLite{db: db} }

const (
	insertStatusSQL = `
		INSERT INTO status_log (recorded_at, is_running, temperature_smoker, temperature_food, temperature_target, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	selectStatusSinceSQL  = `SELECT recorded_at, payload FROM status_log WHERE recorded_at >= ? ORDER BY recorded_at ASC, id ASC`
	deleteStatusBeforeSQL = `DELETE FROM status_log WHERE recorded_at < ?`
)

// Append stores one sample. The temperature columns duplicate the payload so
// they can be queried without decoding it.
func (r *StatusLogSQLite) Append(ctx context.Context, recordedAt time.Time, s models.DeviceStatus) error {
	s.Timestamp = time.Time{}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	_, err = r.db.ExecContext(ctx, insertStatusSQL,
		formatTS(recordedAt),
		s.IsRunning,
		s.TemperatureSmoker,
		s.TemperatureFood,
		s.TemperatureTarget,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

// ListSince returns samples recorded at or after since, oldest first, with
// Timestamp set to the recording time.
func (r *StatusLogSQLite) ListSince(ctx context.Context, since time.Time) (models.History, error) {
	rows, err := r.db.QueryContext(ctx, selectStatusSinceSQL, formatTS(since))
	if err != nil {
		return nil, fmt.Errorf("select status since %s: %w", since, err)
	}
	defer rows.Close()

	out := make(models.History, 0, 256)
	for rows.Next() {
		var (
			recordedAt time.Time
			payload    string
		)
		if err := rows.Scan(&recordedAt, &payload); err != nil {
			return nil, err
		}
		s, err := models.ParseStatus([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decode stored status: %w", err)
		}
		s.Timestamp = recordedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOlderThan removes samples recorded before cutoff and reports how many.
func (r *StatusLogSQLite) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteStatusBeforeSQL, formatTS(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete status before %s: %w", cutoff, err)
	}
	return res.RowsAffected()
}
