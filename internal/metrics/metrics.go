// Package metrics provides Prometheus collectors for the sandbox pool.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AllocationsTotal counts successful allocations by source (warm/cold).
	AllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandpool_allocations_total",
			Help: "Successful sandbox allocations",
		},
		[]string{"source"},
	)

	// AllocationErrorsTotal counts refused or failed allocations by reason.
	AllocationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandpool_allocation_errors_total",
			Help: "Failed sandbox allocations",
		},
		[]string{"reason"},
	)

	// AllocationDuration records allocation latency in seconds by source.
	AllocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandpool_allocation_duration_seconds",
			Help:    "Allocation latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	// ActiveSandboxes tracks the number of currently tracked active sandboxes.
	ActiveSandboxes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sandpool_active_sandboxes",
			Help: "Currently active sandboxes",
		},
	)

	// WarmPoolSize tracks the current warm pool fill level.
	WarmPoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sandpool_warm_pool_size",
			Help: "Warm pool entries available",
		},
	)

	// UnhealthyTotal counts unhealthy observations from the health checker.
	UnhealthyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandpool_unhealthy_total",
			Help: "Unhealthy sandbox observations",
		},
	)

	// OrphansReapedTotal counts containers removed by reconciliation.
	OrphansReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandpool_orphans_reaped_total",
			Help: "Orphaned containers removed by reconciliation",
		},
	)

	// AdvisoryFailuresTotal counts best-effort failures (warm seeding,
	// replenishment, cleanup removes, health-check inspects) that are
	// logged rather than surfaced to callers.
	AdvisoryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandpool_advisory_failures_total",
			Help: "Best-effort operation failures",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		AllocationsTotal,
		AllocationErrorsTotal,
		AllocationDuration,
		ActiveSandboxes,
		WarmPoolSize,
		UnhealthyTotal,
		OrphansReapedTotal,
		AdvisoryFailuresTotal,
	)
}
