// Package session implements the configuration edit session: a draft copied
// from the cached configuration, edited locally, validated and submitted as a
// full replacement.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"smokemate/internal/logger"
	"smokemate/internal/metrics"
	"smokemate/internal/models"
)

// State of the edit session.
type State int

const (
	Closed State = iota
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

var (
	ErrNoConfig    = errors.New("no configuration received from the controller yet")
	ErrAlreadyOpen = errors.New("edit session already open")
	ErrNotEditing  = errors.New("no edit session open")
	ErrSubmitting  = errors.New("submission in progress")
)

// ConfigCache is where the draft comes from and where a successful
// submission is adopted. poller.Store implements it.
type ConfigCache interface {
	Config() (models.DeviceConfig, bool)
	AdoptConfig(cfg models.DeviceConfig)
}

// Submitter sends a full-replacement configuration. device.Client
// implements it.
type Submitter interface {
	SetConfig(ctx context.Context, cfg models.WireConfig) error
}

// Snapshot is a copy of the session for presentation.
type Snapshot struct {
	State       string                  `json:"state"`
	OpenedAt    time.Time               `json:"opened_at,omitzero"`
	Draft       *models.WireConfig      `json:"draft,omitempty"`
	PasswordSet bool                    `json:"wifi_password_set"`
	Dirty       []string                `json:"dirty"`
	Violations  []models.FieldViolation `json:"violations"`
	LastError   string                  `json:"last_error,omitempty"`
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMetrics counts submissions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// Reconciler owns the single edit session. Each method is one turn under the
// session lock; the network send of Submit runs outside it with the state
// parked at Submitting, so no other edit can interleave.
//
// Configuration polls keep updating the cache while a draft is open and never
// touch the draft.
type Reconciler struct {
	cache   ConfigCache
	device  Submitter
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	state    State
	draft    models.DeviceConfig
	dirty    map[string]struct{}
	openedAt time.Time
	lastErr  error
}

// New returns a closed session.
func New(cache ConfigCache, device Submitter, log *logger.Logger, opts ...Option) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	r := &Reconciler{
		cache:  cache,
		device: device,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Open starts editing a deep copy of the cached configuration.
func (r *Reconciler) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Editing:
		return ErrAlreadyOpen
	case Submitting:
		return ErrSubmitting
	}
	cfg, ok := r.cache.Config()
	if !ok {
		return ErrNoConfig
	}
	cfg.WiFiPassword = ""
	r.draft = cfg
	r.dirty = map[string]struct{}{}
	r.openedAt = r.now()
	r.lastErr = nil
	r.state = Editing
	r.log.Infow("session_opened", "steps", cfg.StepsCount())
	return nil
}

// editable reports why the draft cannot be edited right now. Callers hold r.mu.
func (r *Reconciler) editable() error {
	switch r.state {
	case Closed:
		return ErrNotEditing
	case Submitting:
		return ErrSubmitting
	}
	return nil
}

// SetField sets one top-level field by wire name or user-unit alias. The
// value is coerced to the field's type; a value that does not coerce leaves
// the draft unchanged. Integer fields reject fractional values such as 225.9.
func (r *Reconciler) SetField(name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.editable(); err != nil {
		return err
	}

	s, ok := setters[name]
	if !ok {
		return &FieldError{Field: name, Err: ErrUnknownField}
	}
	next := r.draft.Clone()
	if err := s.apply(&next, value); err != nil {
		return &FieldError{Field: name, Err: err}
	}
	r.draft = next
	for _, f := range s.touches {
		r.dirty[f] = struct{}{}
	}
	return nil
}

// SetStepField edits one field of profile step index.
func (r *Reconciler) SetStepField(index int, field string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.editable(); err != nil {
		return err
	}

	name := fmt.Sprintf("temperatureProfile[%d].%s", index, field)
	if index < 0 || index >= len(r.draft.TemperatureProfile) {
		return &FieldError{Field: name, Err: fmt.Errorf("step index out of range [0,%d)", len(r.draft.TemperatureProfile))}
	}
	step, err := applyStepField(r.draft.TemperatureProfile[index], field, value)
	if err != nil {
		return &FieldError{Field: name, Err: err}
	}
	r.draft = r.draft.Clone()
	r.draft.TemperatureProfile[index] = step
	r.dirty["temperatureProfile"] = struct{}{}
	return nil
}

// SetStepCount grows or truncates the profile to n steps.
func (r *Reconciler) SetStepCount(n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.editable(); err != nil {
		return err
	}
	if n < 0 || n > models.MaxProfileSteps {
		return &FieldError{Field: "temperatureProfileStepsCount", Err: fmt.Errorf("must be within 0..%d", models.MaxProfileSteps)}
	}

	next := r.draft.Clone()
	if n < len(next.TemperatureProfile) {
		next.TemperatureProfile = next.TemperatureProfile[:n]
	}
	for len(next.TemperatureProfile) < n {
		next.TemperatureProfile = append(next.TemperatureProfile, newStep(next))
	}
	r.draft = next
	r.dirty["temperatureProfile"] = struct{}{}
	return nil
}

// Discard closes the session without sending anything.
func (r *Reconciler) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.editable(); err != nil {
		return err
	}
	r.reset()
	r.log.Infow("session_discarded")
	return nil
}

// reset closes the session. Callers hold r.mu.
func (r *Reconciler) reset() {
	r.state = Closed
	r.draft = models.DeviceConfig{}
	r.dirty = nil
	r.openedAt = time.Time{}
}

// Submit validates the draft and sends it as a full replacement. A draft with
// violations is rejected with *models.ValidationError before any request. On
// success the sent configuration is adopted into the cache (without the
// password) and the session closes; on failure it returns to Editing with the
// draft intact.
func (r *Reconciler) Submit(ctx context.Context) error {
	r.mu.Lock()
	if err := r.editable(); err != nil {
		r.mu.Unlock()
		return err
	}
	if vs := models.ValidateDraft(r.draft); len(vs) > 0 {
		r.mu.Unlock()
		r.countSubmit("invalid")
		return &models.ValidationError{Violations: vs}
	}
	draft := r.draft.Clone()
	r.state = Submitting
	r.mu.Unlock()

	err := r.device.SetConfig(ctx, models.ToWirePayload(draft))

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = Editing
		r.lastErr = err
		r.countSubmit("failed")
		r.log.Warnw("session_submit_failed", "err", err)
		return fmt.Errorf("submit configuration: %w", err)
	}

	draft.WiFiPassword = ""
	r.cache.AdoptConfig(draft)
	r.lastErr = nil
	r.reset()
	r.countSubmit("ok")
	r.log.Infow("session_submitted", "steps", draft.StepsCount(), "target", draft.TemperatureTarget)
	return nil
}

func (r *Reconciler) countSubmit(result string) {
	if r.metrics != nil {
		r.metrics.Submits.WithLabelValues(result).Inc()
	}
}

// Snapshot returns the session state, a copy of the draft and its current
// violations.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		State:      r.state.String(),
		OpenedAt:   r.openedAt,
		Dirty:      []string{},
		Violations: []models.FieldViolation{},
	}
	if r.lastErr != nil {
		snap.LastError = r.lastErr.Error()
	}
	if r.state == Closed {
		return snap
	}

	w := models.ToWirePayload(r.draft)
	snap.PasswordSet = w.WiFiPassword != ""
	w.WiFiPassword = ""
	snap.Draft = &w
	for f := range r.dirty {
		snap.Dirty = append(snap.Dirty, f)
	}
	sort.Strings(snap.Dirty)
	if vs := models.ValidateDraft(r.draft); vs != nil {
		snap.Violations = vs
	}
	return snap
}

// Draft returns a copy of the draft while a session is open.
func (r *Reconciler) Draft() (models.DeviceConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Closed {
		return models.DeviceConfig{}, false
	}
	return r.draft.Clone(), true
}
