// Package metrics provides Prometheus metrics for MapGrid: task lifecycle
// counters and upstream call latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated tracks created tasks by type.
var TasksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mapgrid",
	Name:      "tasks_created_total",
	Help:      "Total tasks created.",
}, []string{"type"})

// TasksCompleted tracks completed tasks by type.
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mapgrid",
	Name:      "tasks_completed_total",
	Help:      "Total completed tasks.",
}, []string{"type"})

// TasksFailed tracks failed tasks by type and failure reason.
var TasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mapgrid",
	Name:      "tasks_failed_total",
	Help:      "Total failed tasks.",
}, []string{"type", "reason"})

// TasksActive tracks currently executing tasks.
var TasksActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mapgrid",
	Name:      "tasks_active",
	Help:      "Number of currently executing tasks.",
})

// ─── Upstream ───────────────────────────────────────────────────────────────

// UpstreamLatency tracks upstream provider call duration in seconds.
var UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "mapgrid",
	Name:      "upstream_latency_seconds",
	Help:      "Upstream mapping-provider call duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})
