package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/perennial"
	"github.com/aretw0/perennial/pkg/runner"
)

// Metrics holds the collectors for one host process. Session ids are
// deliberately not a label; their cardinality is unbounded.
type Metrics struct {
	transitions *prometheus.CounterVec
	duration    prometheus.Histogram
	actions     *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	restored    prometheus.Counter
	checkpoints *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perennial_transitions_total",
				Help: "Total number of transition attempts",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "perennial_transition_duration_seconds",
				Help: "Duration of committed machine transitions",
			},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perennial_actions_total",
				Help: "Total number of actions emitted by transitions and restores",
			},
			[]string{"kind"},
		),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perennial_dispatches_total",
				Help: "Total number of dispatched actions",
			},
			[]string{"kind", "outcome"},
		),
		restored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perennial_restored_actions_total",
				Help: "Total number of probes regenerated by recovery replays",
			},
		),
		checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perennial_checkpoints_total",
				Help: "Total number of checkpoint attempts",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.transitions, m.duration, m.actions, m.dispatches, m.restored, m.checkpoints)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Hooks returns the runner hooks feeding these collectors.
func (m *Metrics) Hooks() runner.Hooks {
	return runner.Hooks{
		OnTransition: func(sessionID string, err error, elapsed time.Duration) {
			m.transitions.WithLabelValues(outcome(err)).Inc()
			if err == nil {
				m.duration.Observe(elapsed.Seconds())
			}
		},
		OnActions: func(sessionID string, tracked, untracked int) {
			m.actions.WithLabelValues("tracked").Add(float64(tracked))
			m.actions.WithLabelValues("untracked").Add(float64(untracked))
		},
		OnRestore: func(sessionID string, regenerated int, err error) {
			if err == nil {
				m.restored.Add(float64(regenerated))
			}
		},
		OnDispatch: func(sessionID string, kind perennial.Kind, err error) {
			m.dispatches.WithLabelValues(kind.String(), outcome(err)).Inc()
		},
		OnCheckpoint: func(sessionID string, err error) {
			m.checkpoints.WithLabelValues(outcome(err)).Inc()
		},
	}
}
