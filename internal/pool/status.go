package pool

import (
	"context"
	"time"
)

// SandboxStatus is one per-sandbox snapshot in a status report.
type SandboxStatus struct {
	WorkloadID  string    `json:"workload_id"`
	SandboxID   string    `json:"sandbox_id"` // 12-char prefix
	Status      string    `json:"status"`
	MemoryBytes int64     `json:"memory_limit_bytes"`
	NanoCPUs    int64     `json:"nano_cpus"`
	StartedAt   time.Time `json:"started_at"`
}

type PoolStatus struct {
	Active    int             `json:"active"`
	Capacity  int             `json:"capacity"`
	Available int             `json:"available"`
	WarmSize  int             `json:"warm_size"`
	Sandboxes []SandboxStatus `json:"sandboxes"`
}

// Status reports pool occupancy and a live per-sandbox snapshot. Inspect
// failures for individual sandboxes are reported as "unknown" rather
// than failing the whole call.
func (m *Manager) Status(ctx context.Context) (*PoolStatus, error) {
	m.mu.Lock()
	tracked := make(map[string]*workload, len(m.active))
	for workloadID, w := range m.active {
		if w.sandboxID != "" {
			tracked[workloadID] = w
		}
	}
	activeCount := len(m.active)
	m.mu.Unlock()

	st := &PoolStatus{
		Active:    activeCount,
		Capacity:  m.cfg.Capacity,
		Available: m.cfg.Capacity - activeCount,
		WarmSize:  m.warm.Size(),
		Sandboxes: make([]SandboxStatus, 0, len(tracked)),
	}
	if st.Available < 0 {
		st.Available = 0
	}

	for workloadID, w := range tracked {
		status, err := m.rt.InspectState(ctx, w.sandboxID)
		if err != nil {
			status = "unknown"
		}
		st.Sandboxes = append(st.Sandboxes, SandboxStatus{
			WorkloadID:  workloadID,
			SandboxID:   shortID(w.sandboxID),
			Status:      status,
			MemoryBytes: m.memoryBytes,
			NanoCPUs:    m.nanoCPUs,
			StartedAt:   w.startedAt,
		})
	}
	return st, nil
}
