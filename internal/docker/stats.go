package docker

import (
	"fmt"

	"github.com/docker/docker/api/types/container"
)

// Stats is a point-in-time resource usage summary for one sandbox.
type Stats struct {
	CPUPercent     string  `json:"cpu_percent"`
	MemoryUsage    uint64  `json:"memory_usage_bytes"`
	MemoryLimit    uint64  `json:"memory_limit_bytes"`
	MemoryPercent  float64 `json:"memory_percent"`
	NetworkRxBytes uint64  `json:"network_rx_bytes"`
	NetworkTxBytes uint64  `json:"network_tx_bytes"`
}

// summarize condenses a raw runtime stats snapshot. The snapshot carries
// the current and the previous cumulative CPU sample in one response.
func summarize(raw *container.StatsResponse) Stats {
	s := Stats{
		CPUPercent:  cpuPercent(raw),
		MemoryUsage: raw.MemoryStats.Usage,
		MemoryLimit: raw.MemoryStats.Limit,
	}
	if s.MemoryLimit > 0 {
		s.MemoryPercent = float64(s.MemoryUsage) / float64(s.MemoryLimit) * 100.0
	}
	for _, nw := range raw.Networks {
		s.NetworkRxBytes += nw.RxBytes
		s.NetworkTxBytes += nw.TxBytes
	}
	return s
}

// cpuPercent computes instantaneous CPU usage from the two cumulative
// samples: (cpu_delta / system_delta) × online_cpus × 100. A non-positive
// delta (first sample after start, clock skew) yields "0.00" instead of a
// division by zero or a negative value.
func cpuPercent(raw *container.StatsResponse) string {
	cpuDelta := int64(raw.CPUStats.CPUUsage.TotalUsage) - int64(raw.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := int64(raw.CPUStats.SystemUsage) - int64(raw.PreCPUStats.SystemUsage)
	if cpuDelta <= 0 || sysDelta <= 0 {
		return "0.00"
	}

	cpus := float64(raw.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = float64(len(raw.CPUStats.CPUUsage.PercpuUsage))
	}
	if cpus == 0 {
		cpus = 1
	}

	pct := float64(cpuDelta) / float64(sysDelta) * cpus * 100.0
	return fmt.Sprintf("%.2f", pct)
}
