package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smokemate/internal/logger"
	"smokemate/internal/metrics"
	"smokemate/internal/models"
	"smokemate/internal/repository"
)

// MaxHistorySamples bounds /run-status-history; longer runs are thinned.
const MaxHistorySamples = 1800

// RecorderService stores status samples while the controller runs and tracks
// the start of the current run.
//
// A run starts on a not-running to running transition between two observed
// samples; the very first sample never starts one, so a relay started
// mid-run serves the run it restored from storage.
type RecorderService struct {
	statusLog repository.StatusLogRepo
	runState  repository.RunStateRepo
	events    EventLog
	metrics   *metrics.Metrics
	log       *logger.Logger
	retention time.Duration
	now       func() time.Time

	mu    sync.Mutex
	state models.RunState
}

func NewRecorderService(repos *repository.Repository, events EventLog, retention time.Duration, m *metrics.Metrics, log *logger.Logger) *RecorderService {
	if log == nil {
		log = logger.Nop()
	}
	return &RecorderService{
		statusLog: repos.StatusLog,
		runState:  repos.RunState,
		events:    events,
		metrics:   m,
		log:       log,
		retention: retention,
		now:       time.Now,
	}
}

// Restore loads the persisted run state.
func (s *RecorderService) Restore(ctx context.Context) error {
	st, err := s.runState.Load(ctx)
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if st.HasRun() {
		s.log.Infow("run_state_restored", "run_started_at", st.RunStartedAt, "running", st.LastRunning)
	}
	return nil
}

// RunState returns the current run tracking.
func (s *RecorderService) RunState() models.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Observe handles one applied status sample. It is registered as a poller
// status observer.
func (s *RecorderService) Observe(ctx context.Context, st models.DeviceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	prev := s.state
	started := prev.Observed && !prev.LastRunning && st.IsRunning

	next := prev
	next.Observed = true
	next.LastRunning = st.IsRunning
	if started {
		next.RunStartedAt = now
	}
	if next != prev {
		next.UpdatedAt = now
		if err := s.runState.Save(ctx, next); err != nil {
			s.log.Warnw("run_state_save_failed", "err", err)
		}
		s.state = next
	}

	if started {
		s.log.Infow("run_started", "at", now)
		if s.events != nil {
			s.events.Record(ctx, models.DeviceEvent{
				OccurredAt:  now,
				Type:        models.EventRunStarted,
				Description: "Controller transitioned from not running to running",
				Metadata:    map[string]any{"temperature_smoker": st.TemperatureSmoker, "temperature_target": st.TemperatureTarget},
			})
		}
	}

	if !st.IsRunning {
		return
	}
	if err := s.statusLog.Append(ctx, now, st); err != nil {
		s.log.Warnw("status_record_failed", "err", err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordedSample.Inc()
	}
}

// RunHistory returns the samples of the current run, oldest first, thinned
// to MaxHistorySamples. Without a recorded run it is empty.
func (s *RecorderService) RunHistory(ctx context.Context) (models.History, error) {
	st := s.RunState()
	if !st.HasRun() {
		return models.History{}, nil
	}
	h, err := s.statusLog.ListSince(ctx, st.RunStartedAt)
	if err != nil {
		return nil, err
	}
	return h.Decimate(MaxHistorySamples), nil
}

// Cleanup deletes samples older than the retention period. A zero retention
// keeps everything.
func (s *RecorderService) Cleanup(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)
	n, err := s.statusLog.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.log.Infow("status_log_cleanup", "deleted", n, "cutoff", cutoff.UTC())
	return n, nil
}
