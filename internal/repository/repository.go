package repository

import (
	"context"
	"database/sql"
	"time"

	"smokemate/internal/models"
)

// StatusLogRepo stores status samples recorded while the controller runs.
type StatusLogRepo interface {
	Append(ctx context.Context, recordedAt time.Time, s models.DeviceStatus) error
	ListSince(ctx context.Context, since time.Time) (models.History, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunStateRepo persists the relay's run tracking across restarts.
type RunStateRepo interface {
	Save(ctx context.Context, s models.RunState) error
	Load(ctx context.Context) (models.RunState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

type Repository struct {
	StatusLog StatusLogRepo
	RunState  RunStateRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StatusLog: NewStatusLogSQLite(db),
		RunState:  NewRunStateSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}

// tsLayout is how timestamps are written. Fixed width keeps text comparison
// in SQL equal to time order.
const tsLayout = "2006-01-02 15:04:05.000"

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }
