// Package metrics holds the Prometheus collectors shared by the engines.
//
// Collectors register on the default registry at init. The CLI has no HTTP
// listener, so WriteTextfile exports a snapshot in the node_exporter
// textfile format instead.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "studygate"

var (
	// MasteryUpdates counts BKT updates by outcome ("correct" or "incorrect").
	MasteryUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mastery_updates_total",
		Help:      "Total mastery updates by observation outcome",
	}, []string{"outcome"})

	// MasteryUpdateDuration tracks the read-modify-write transaction latency.
	MasteryUpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mastery_update_duration_seconds",
		Help:      "Mastery update duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	// DegeneratePosteriors counts posteriors whose denominator was zero.
	DegeneratePosteriors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "degenerate_posteriors_total",
		Help:      "Posterior computations that fell back to the prior",
	})

	// GateDecisions counts computed node statuses.
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Computed curriculum node statuses by status",
	}, []string{"status"})

	// OutOfSequenceAttempts counts practice on locked nodes.
	OutOfSequenceAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "out_of_sequence_attempts_total",
		Help:      "Practice attempts on nodes that were locked",
	})

	// CycleRejections counts node upserts refused for closing a prerequisite cycle.
	CycleRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_rejections_total",
		Help:      "Curriculum node upserts rejected for creating a prerequisite cycle",
	})

	// PracticeEvents counts appended practice log entries by source.
	PracticeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "practice_events_total",
		Help:      "Practice events appended to the log by source",
	}, []string{"source"})
)

// Outcome maps a BKT observation to its MasteryUpdates label.
func Outcome(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}

// WriteTextfile writes every registered metric to path atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
