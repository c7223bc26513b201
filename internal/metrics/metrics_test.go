package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestMetricsRegistered verifies that all collectors are registered in the
// default registry without panicking.
func TestMetricsRegistered(t *testing.T) {
	// Touch labeled collectors so Gather reports them.
	AllocationsTotal.WithLabelValues("warm").Add(0)
	AllocationErrorsTotal.WithLabelValues("capacity").Add(0)
	AllocationDuration.WithLabelValues("cold").Observe(0)
	AdvisoryFailuresTotal.WithLabelValues("replenish").Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"sandpool_allocations_total":            false,
		"sandpool_allocation_errors_total":      false,
		"sandpool_allocation_duration_seconds":  false,
		"sandpool_active_sandboxes":             false,
		"sandpool_warm_pool_size":               false,
		"sandpool_unhealthy_total":              false,
		"sandpool_orphans_reaped_total":         false,
		"sandpool_advisory_failures_total":      false,
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, seen := range expected {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}
