package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"smokemate/internal/logger"
)

const cleanupTimeout = time.Minute

// Cleaner deletes expired samples.
type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// RetentionScheduler runs the status log cleanup on a cron schedule.
type RetentionScheduler struct {
	cron    *cron.Cron
	cleaner Cleaner
	log     *logger.Logger
}

// NewRetentionScheduler parses spec (standard five-field or a descriptor such
// as "@hourly") and registers the cleanup job.
func NewRetentionScheduler(cleaner Cleaner, spec string, log *logger.Logger) (*RetentionScheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &RetentionScheduler{
		cron:    cron.New(),
		cleaner: cleaner,
		log:     log,
	}
	if _, err := s.cron.AddFunc(spec, s.runCleanup); err != nil {
		return nil, fmt.Errorf("schedule cleanup %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *RetentionScheduler) Start() {
	s.cron.Start()
	s.log.Infow("retention_scheduler_started")
}

// Stop waits for a running job to finish.
func (s *RetentionScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Infow("retention_scheduler_stopped")
}

func (s *RetentionScheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if _, err := s.cleaner.Cleanup(ctx); err != nil {
		s.log.Errorw("status_log_cleanup_failed", "err", err)
	}
}
