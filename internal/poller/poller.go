// Package poller keeps a locally consistent view of the controller by
// polling its status, configuration and history on independent fixed
// cadences.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"smokemate/internal/logger"
	"smokemate/internal/metrics"
	"smokemate/internal/models"
)

// DefaultInterval is the cadence of every resource unless configured.
const DefaultInterval = 250 * time.Millisecond

// ErrAlreadyRunning is returned by Start on a running poller.
var ErrAlreadyRunning = errors.New("poller already running")

// Fetcher issues one request per resource. device.Client implements it.
type Fetcher interface {
	FetchStatus(ctx context.Context) (models.DeviceStatus, error)
	FetchConfig(ctx context.Context) (models.DeviceConfig, error)
	FetchHistory(ctx context.Context) (models.History, error)
}

// Intervals is the per-resource cadence. A zero interval disables polling of
// that resource.
type Intervals struct {
	Status  time.Duration
	Config  time.Duration
	History time.Duration
}

// DefaultIntervals polls everything every 250ms.
func DefaultIntervals() Intervals {
	return Intervals{Status: DefaultInterval, Config: DefaultInterval, History: DefaultInterval}
}

func (iv Intervals) of(r Resource) time.Duration {
	switch r {
	case ResourceStatus:
		return iv.Status
	case ResourceConfig:
		return iv.Config
	case ResourceHistory:
		return iv.History
	}
	return 0
}

// StatusObserver is called after a status snapshot has been applied.
// Observers run one at a time, in the order the snapshots were applied, and
// must not poll status themselves.
type StatusObserver func(ctx context.Context, st models.DeviceStatus)

// Option configures a Poller.
type Option func(*Poller)

// WithMetrics records poll outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithStatusObserver registers fn to run after each applied status.
func WithStatusObserver(fn StatusObserver) Option {
	return func(p *Poller) { p.observers = append(p.observers, fn) }
}

// Poller runs one ticker loop per enabled resource against a Store.
//
// Every tick issues a request without waiting for the previous one; the
// store discards completions older than the last applied one, so a slow
// request never overwrites a newer result. Failures leave the value
// untouched and the next tick is the only retry.
type Poller struct {
	fetcher   Fetcher
	store     *Store
	intervals Intervals
	log       *logger.Logger
	metrics   *metrics.Metrics
	observers []StatusObserver

	// statusMu orders status completions with their observers: observers
	// see statuses in the order they were applied.
	statusMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a poller. It does nothing until Start.
func New(f Fetcher, store *Store, intervals Intervals, log *logger.Logger, opts ...Option) *Poller {
	if log == nil {
		log = logger.Nop()
	}
	p := &Poller{
		fetcher:   f,
		store:     store,
		intervals: intervals,
		log:       log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the store the poller writes to.
func (p *Poller) Store() *Store { return p.store }

// Running reports whether the poller has been started and not stopped.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start polls every enabled resource once immediately and then on its
// interval until Stop or ctx cancellation.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	gen := p.store.begin()

	for _, r := range Resources {
		interval := p.intervals.of(r)
		if interval <= 0 {
			continue
		}
		p.wg.Add(1)
		go p.loop(ctx, r, interval)
	}
	p.log.Infow("poller_started", "generation", gen,
		"status_interval", p.intervals.Status, "config_interval", p.intervals.Config,
		"history_interval", p.intervals.History)
	return nil
}

// Stop cancels the loops and every in-flight request and waits for them to
// return. Completions that arrive after Stop are ignored.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.store.end()
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Infow("poller_stopped")
}

// Refresh polls one resource now, outside the regular cadence, and waits for
// the completion. It follows the same ordering rules as a tick. After Stop it
// does nothing until the next Start.
func (p *Poller) Refresh(ctx context.Context, r Resource) {
	if p.store.isRetired() {
		return
	}
	p.poll(ctx, r)
}

func (p *Poller) loop(ctx context.Context, r Resource, interval time.Duration) {
	defer p.wg.Done()

	p.spawn(ctx, r)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.spawn(ctx, r)
		}
	}
}

// spawn runs one poll without blocking the ticker.
func (p *Poller) spawn(ctx context.Context, r Resource) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.poll(ctx, r)
	}()
}

func (p *Poller) poll(ctx context.Context, r Resource) {
	t := p.store.issue(r)
	switch r {
	case ResourceStatus:
		v, err := p.fetcher.FetchStatus(ctx)
		p.statusMu.Lock()
		if p.finish(t, err, func() outcome { return p.store.applyStatus(t, v) }) {
			for _, fn := range p.observers {
				fn(ctx, v)
			}
		}
		p.statusMu.Unlock()
	case ResourceConfig:
		v, err := p.fetcher.FetchConfig(ctx)
		p.finish(t, err, func() outcome { return p.store.applyConfig(t, v) })
	case ResourceHistory:
		v, err := p.fetcher.FetchHistory(ctx)
		p.finish(t, err, func() outcome { return p.store.applyHistory(t, v) })
	}
}

// finish applies or records one completion and reports whether it was applied.
func (p *Poller) finish(t ticket, err error, apply func() outcome) bool {
	var (
		o       outcome
		streak  int
		elapsed = p.store.now().Sub(t.issuedAt)
	)
	if err != nil {
		o, streak = p.store.recordFailure(t, err)
	} else {
		o = apply()
	}
	p.observe(t.resource, o, elapsed)

	switch o {
	case failed:
		// The first failure of a streak is a warning; the rest would flood
		// the log at sub-second cadences.
		if streak == 1 {
			p.log.Warnw("poll_failed", "resource", t.resource, "seq", t.seq, "err", err)
		} else {
			p.log.Debugw("poll_failed", "resource", t.resource, "seq", t.seq, "streak", streak, "err", err)
		}
	case stale:
		p.log.Debugw("poll_stale_completion_dropped", "resource", t.resource, "seq", t.seq)
	case cancelled:
		p.log.Debugw("poll_completion_after_stop_dropped", "resource", t.resource, "seq", t.seq)
	}
	return o == applied
}

func (p *Poller) observe(r Resource, o outcome, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	label := metrics.OutcomeApplied
	switch o {
	case stale:
		label = metrics.OutcomeStale
	case cancelled:
		label = metrics.OutcomeCancelled
	case failed:
		label = metrics.OutcomeFailed
	}
	p.metrics.Polls.WithLabelValues(r.String(), label).Inc()
	p.metrics.PollLatency.WithLabelValues(r.String()).Observe(elapsed.Seconds())
}
