// Package metrics exposes the prometheus collectors of the poller and the
// edit session.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Poll outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics groups the collectors so each binary can register its own set.
type Metrics struct {
	Polls          *prometheus.CounterVec
	PollLatency    *prometheus.HistogramVec
	Submits        *prometheus.CounterVec
	RecordedSample prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil registerer
// leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smokemate",
			Name:      "polls_total",
			Help:      "Poll completions by resource and outcome.",
		}, []string{"resource", "outcome"}),
		PollLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smokemate",
			Name:      "poll_duration_seconds",
			Help:      "Time from issuing a poll request to its completion.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"resource"}),
		Submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smokemate",
			Name:      "config_submits_total",
			Help:      "Configuration submissions by result.",
		}, []string{"result"}),
		RecordedSample: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smokemate",
			Name:      "relay_recorded_samples_total",
			Help:      "Status samples written to the run history.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Polls, m.PollLatency, m.Submits, m.RecordedSample)
	}
	return m
}
