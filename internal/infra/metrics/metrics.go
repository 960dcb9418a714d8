// Package metrics provides Prometheus metrics for the scheduler:
// counters, gauges, and histograms for planning, conflicts, lot
// splitting, stage splits, and task execution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Planning ───────────────────────────────────────────────────────────────

// PlanningLatency tracks planning request duration in seconds.
var PlanningLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "prodsched",
	Name:      "planning_latency_seconds",
	Help:      "Planning request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"kind"})

// PlansComputed tracks computed plans by kind (task, lots).
var PlansComputed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "plans_computed_total",
	Help:      "Total plans computed.",
}, []string{"kind"})

// StagesDeferred tracks stages pushed whole to a later shift.
var StagesDeferred = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "stages_deferred_total",
	Help:      "Total stages deferred to a following shift.",
})

// LotWarnings tracks per-lot planning failures that did not abort the
// remaining lots.
var LotWarnings = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "lot_warnings_total",
	Help:      "Total lot planning warnings.",
})

// ─── Conflicts ──────────────────────────────────────────────────────────────

// ConflictsDetected tracks machine booking conflicts.
var ConflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "conflicts_detected_total",
	Help:      "Total machine booking conflicts detected.",
})

// AlternativeSelections tracks alternative machine picks by outcome.
var AlternativeSelections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "alternative_selections_total",
	Help:      "Total alternative machine selections.",
}, []string{"outcome"})

// ─── Splits ─────────────────────────────────────────────────────────────────

// StageSplits tracks applied stage splits by mode.
var StageSplits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "stage_splits_total",
	Help:      "Total stage splits applied.",
}, []string{"mode"})

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated tracks created tasks.
var TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "tasks_created_total",
	Help:      "Total tasks created.",
})

// TaskTransitions tracks task status transitions.
var TaskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "prodsched",
	Name:      "task_transitions_total",
	Help:      "Total task status transitions.",
}, []string{"to"})

// TasksActive tracks tasks currently in progress.
var TasksActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "prodsched",
	Name:      "tasks_active",
	Help:      "Number of tasks currently in progress.",
})
