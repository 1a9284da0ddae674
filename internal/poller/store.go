package poller

import (
	"sync"
	"time"

	"smokemate/internal/models"
)

// Resource identifies one of the independently polled values.
type Resource int

const (
	ResourceStatus Resource = iota
	ResourceConfig
	ResourceHistory
	numResources
)

// Resources lists every resource in poll order.
var Resources = []Resource{ResourceStatus, ResourceConfig, ResourceHistory}

func (r Resource) String() string {
	switch r {
	case ResourceStatus:
		return models.ResourceStatus
	case ResourceConfig:
		return models.ResourceConfig
	case ResourceHistory:
		return models.ResourceHistory
	default:
		return "unknown"
	}
}

// outcome is what happened to one completion.
type outcome int

const (
	applied   outcome = iota
	stale             // a newer request already landed
	cancelled         // issued by a poller generation that has since stopped
	failed
)

// ticket is handed out when a request is issued and presented again when it
// completes.
type ticket struct {
	resource Resource
	gen      uint64
	seq      uint64
	issuedAt time.Time
}

type tracker struct {
	issued      uint64
	applied     uint64
	lastUpdated time.Time

	consecutiveFailures int
	totalFailures       int
	lastError           string
	lastFailure         time.Time
}

// ResourceStats is a read-only view of one resource's poll bookkeeping.
type ResourceStats struct {
	Resource            string    `json:"resource"`
	LastUpdated         time.Time `json:"last_updated,omitzero"`
	IssuedSeq           uint64    `json:"issued_seq"`
	AppliedSeq          uint64    `json:"applied_seq"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalFailures       int       `json:"total_failures"`
	LastError           string    `json:"last_error,omitempty"`
	LastFailure         time.Time `json:"last_failure,omitzero"`
}

// Store holds the last-known-good value of each polled resource. Every
// mutation happens under one lock, so a completion is checked and applied
// as a single turn.
//
// A completion is applied only if it was issued by the current generation and
// its sequence number is newer than the last applied one for that resource.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	generation uint64
	retired    bool

	status     models.DeviceStatus
	hasStatus  bool
	config     models.DeviceConfig
	hasConfig  bool
	history    models.History
	hasHistory bool

	track [numResources]tracker
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Status returns the last applied status snapshot.
func (s *Store) Status() (models.DeviceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.hasStatus
}

// Config returns a copy of the cached configuration.
func (s *Store) Config() (models.DeviceConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone(), s.hasConfig
}

// History returns a copy of the last applied history.
func (s *Store) History() (models.History, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Clone(), s.hasHistory
}

// Connected reports whether a status has been applied and the most recent
// status poll did not fail.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasStatus && s.track[ResourceStatus].consecutiveFailures == 0
}

// LastUpdated returns when the resource last changed.
func (s *Store) LastUpdated(r Resource) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.track[r].lastUpdated
}

// Stats returns bookkeeping for every resource.
func (s *Store) Stats() []ResourceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ResourceStats, 0, numResources)
	for _, r := range Resources {
		t := s.track[r]
		out = append(out, ResourceStats{
			Resource:            r.String(),
			LastUpdated:         t.lastUpdated,
			IssuedSeq:           t.issued,
			AppliedSeq:          t.applied,
			ConsecutiveFailures: t.consecutiveFailures,
			TotalFailures:       t.totalFailures,
			LastError:           t.lastError,
			LastFailure:         t.lastFailure,
		})
	}
	return out
}

// AdoptConfig replaces the cached configuration with one the client just
// submitted successfully. Config polls issued before the adoption are
// treated as stale so they cannot roll the cache back.
func (s *Store) AdoptConfig(cfg models.DeviceConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg.Clone()
	s.hasConfig = true
	t := &s.track[ResourceConfig]
	t.applied = t.issued
	t.lastUpdated = s.now()
}

// begin starts a new poller generation.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.retired = false
	return s.generation
}

// end retires the current generation; its in-flight completions are dropped,
// and so is every completion issued before the next begin.
func (s *Store) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.retired = true
}

func (s *Store) isRetired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retired
}

func (s *Store) issue(r Resource) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track[r].issued++
	return ticket{resource: r, gen: s.generation, seq: s.track[r].issued, issuedAt: s.now()}
}

// admit reports whether a completion may mutate state. Callers hold s.mu.
func (s *Store) admit(t ticket) outcome {
	if s.retired || t.gen != s.generation {
		return cancelled
	}
	if t.seq <= s.track[t.resource].applied {
		return stale
	}
	return applied
}

func (s *Store) markApplied(t ticket) {
	tr := &s.track[t.resource]
	tr.applied = t.seq
	tr.lastUpdated = s.now()
	tr.consecutiveFailures = 0
}

func (s *Store) applyStatus(t ticket, v models.DeviceStatus) outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.admit(t)
	if o == applied {
		s.status, s.hasStatus = v, true
		s.markApplied(t)
	}
	return o
}

func (s *Store) applyConfig(t ticket, v models.DeviceConfig) outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.admit(t)
	if o == applied {
		s.config, s.hasConfig = v.Clone(), true
		s.markApplied(t)
	}
	return o
}

func (s *Store) applyHistory(t ticket, v models.History) outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.admit(t)
	if o == applied {
		s.history, s.hasHistory = v.Clone(), true
		s.markApplied(t)
	}
	return o
}

// recordFailure notes a failed poll. The value is left untouched. Failures of
// requests that were already superseded are not counted.
func (s *Store) recordFailure(t ticket, err error) (outcome, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.admit(t)
	tr := &s.track[t.resource]
	if o != applied {
		return o, tr.consecutiveFailures
	}
	tr.consecutiveFailures++
	tr.totalFailures++
	tr.lastError = err.Error()
	tr.lastFailure = s.now()
	return failed, tr.consecutiveFailures
}
