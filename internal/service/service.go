package service

import (
	"context"
	"time"

	"smokemate/internal/models"
	"smokemate/internal/poller"
	"smokemate/internal/session"
)

// Authorization signs the operator in and checks bearer tokens.
type Authorization interface {
	Enabled() bool
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Control forwards run commands to the controller.
type Control interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ConfigForwarder accepts a full-replacement configuration body and sends it
// to the controller. Only the relay exposes it.
type ConfigForwarder interface {
	SetConfig(ctx context.Context, raw []byte) error
}

// Monitoring exposes the cached, read-only view of the controller.
type Monitoring interface {
	Status() (StatusView, bool)
	WireStatus() models.DeviceStatus
	Config() (models.DeviceConfig, bool)
	History() (models.History, bool)
	PollStats() []poller.ResourceStats
}

// Editor is the configuration edit session.
type Editor interface {
	Open() error
	SetField(name string, value any) error
	SetStepField(index int, field string, value any) error
	SetStepCount(n int) error
	Submit(ctx context.Context) error
	Discard() error
	Snapshot() session.Snapshot
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	Record(ctx context.Context, e models.DeviceEvent)
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Recorder keeps the relay's run history.
type Recorder interface {
	Observe(ctx context.Context, st models.DeviceStatus)
	RunHistory(ctx context.Context) (models.History, error)
	RunState() models.RunState
	Cleanup(ctx context.Context) (int64, error)
}

// Service aggregates the sub-services. A binary leaves the ones it does not
// serve nil; the dashboard has no EventLog or Recorder and the relay no Editor.
type Service struct {
	Monitoring
	Control
	ConfigForwarder
	Editor
	EventLog
	Recorder
	Authorization
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STOP", "CONFIG_SET", "RUN_STARTED"
}
