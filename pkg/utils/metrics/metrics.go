// Package metrics counts shift lifecycle outcomes. A CLI process is short
// lived, so the counters are exported to a node_exporter textfile rather
// than scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Bootstrap outcome labels
const (
	BootstrapExisting  = "existing"
	BootstrapCreated   = "created"
	BootstrapRecovered = "recovered"
	BootstrapFailed    = "failed"
)

var (
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "care_shifts_transitions_total",
			Help: "Shift mutations by event and outcome.",
		},
		[]string{"event", "outcome"},
	)

	schedulingConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "care_shifts_scheduling_conflicts_total",
		Help: "Assignments or reschedules refused because of an overlapping shift.",
	})

	profileBootstrapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "care_shifts_profile_bootstraps_total",
			Help: "Profile bootstrap calls by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register adds the collectors to reg
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{transitionsTotal, schedulingConflictsTotal, profileBootstrapsTotal} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// ObserveTransition counts one shift mutation attempt
func ObserveTransition(event, outcome string) {
	transitionsTotal.WithLabelValues(event, outcome).Inc()
}

// ObserveConflict counts one refused booking
func ObserveConflict() {
	schedulingConflictsTotal.Inc()
}

// ObserveBootstrap counts one EnsureProfile call
func ObserveBootstrap(outcome string) {
	profileBootstrapsTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile registers the collectors on a fresh registry and writes it to path
func WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
