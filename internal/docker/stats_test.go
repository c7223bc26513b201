package docker

import (
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
)

func sample(cpuTotal, cpuPre, sysTotal, sysPre uint64, onlineCPUs uint32) *container.StatsResponse {
	var raw container.StatsResponse
	raw.CPUStats.CPUUsage.TotalUsage = cpuTotal
	raw.CPUStats.SystemUsage = sysTotal
	raw.CPUStats.OnlineCPUs = onlineCPUs
	raw.PreCPUStats.CPUUsage.TotalUsage = cpuPre
	raw.PreCPUStats.SystemUsage = sysPre
	return &raw
}

func TestCPUPercent(t *testing.T) {
	// 50% of one core out of 4 online: (500/1000) * 4 * 100 = 200.00
	raw := sample(1500, 1000, 2000, 1000, 4)
	assert.Equal(t, "200.00", cpuPercent(raw))
}

func TestCPUPercent_ZeroSystemDelta(t *testing.T) {
	raw := sample(1500, 1000, 1000, 1000, 4)
	assert.Equal(t, "0.00", cpuPercent(raw))
}

func TestCPUPercent_NegativeCPUDelta(t *testing.T) {
	// Counter went backwards (container restart between samples).
	raw := sample(500, 1000, 2000, 1000, 4)
	assert.Equal(t, "0.00", cpuPercent(raw))
}

func TestCPUPercent_FirstSample(t *testing.T) {
	raw := sample(1000, 0, 0, 0, 2)
	assert.Equal(t, "0.00", cpuPercent(raw))
}

func TestCPUPercent_FallsBackToPercpuCount(t *testing.T) {
	raw := sample(1500, 1000, 2000, 1000, 0)
	raw.CPUStats.CPUUsage.PercpuUsage = []uint64{1, 2}
	assert.Equal(t, "100.00", cpuPercent(raw))
}

func TestSummarize(t *testing.T) {
	raw := sample(2000, 1000, 3000, 1000, 2)
	raw.MemoryStats.Usage = 256 * 1024 * 1024
	raw.MemoryStats.Limit = 1024 * 1024 * 1024
	raw.Networks = map[string]container.NetworkStats{
		"eth0": {RxBytes: 100, TxBytes: 50},
		"eth1": {RxBytes: 10, TxBytes: 5},
	}

	s := summarize(raw)
	assert.Equal(t, "100.00", s.CPUPercent)
	assert.Equal(t, uint64(256*1024*1024), s.MemoryUsage)
	assert.Equal(t, uint64(1024*1024*1024), s.MemoryLimit)
	assert.InDelta(t, 25.0, s.MemoryPercent, 0.001)
	assert.Equal(t, uint64(110), s.NetworkRxBytes)
	assert.Equal(t, uint64(55), s.NetworkTxBytes)
}

func TestSummarize_ZeroMemoryLimit(t *testing.T) {
	raw := sample(0, 0, 0, 0, 0)
	s := summarize(raw)
	assert.Equal(t, "0.00", s.CPUPercent)
	assert.Zero(t, s.MemoryPercent)
}
