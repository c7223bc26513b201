package pool

import (
	"context"
	"time"

	"github.com/p-arndt/sandpool/internal/metrics"
)

// healthLoop periodically inspects every tracked sandbox and emits an
// unhealthy event on drift. It never remediates; reallocation is the
// orchestrator's decision.
func (m *Manager) healthLoop(ctx context.Context) {
	interval := 30 * time.Second
	if m.cfg.HealthIntervalSeconds > 0 {
		interval = time.Duration(m.cfg.HealthIntervalSeconds) * time.Second
	}
	m.logger.Info("health checker started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("health checker stopped")
			return
		case <-ticker.C:
			m.checkHealth(ctx)
		}
	}
}

// checkHealth inspects each tracked sandbox independently; one inspect
// failure must not abort the pass for the rest.
func (m *Manager) checkHealth(ctx context.Context) {
	m.mu.Lock()
	tracked := make(map[string]string, len(m.active))
	for workloadID, w := range m.active {
		if w.sandboxID != "" {
			tracked[workloadID] = w.sandboxID
		}
	}
	m.mu.Unlock()

	for workloadID, sandboxID := range tracked {
		status, err := m.rt.InspectState(ctx, sandboxID)
		if err != nil {
			m.logger.Warn("health check: inspect failed",
				"workload_id", workloadID, "sandbox", shortID(sandboxID), "error", err)
			metrics.AdvisoryFailuresTotal.WithLabelValues("health_inspect").Inc()
			continue
		}
		if status != stateRunning {
			m.logger.Warn("sandbox unhealthy",
				"workload_id", workloadID, "sandbox", shortID(sandboxID), "status", status)
			metrics.UnhealthyTotal.Inc()
			m.emit(Event{Type: EventUnhealthy, WorkloadID: workloadID, SandboxID: sandboxID, Status: status})
		}
	}
}
