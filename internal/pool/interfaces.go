package pool

import (
	"context"
	"time"

	"github.com/p-arndt/sandpool/internal/docker"
	"github.com/p-arndt/sandpool/internal/registry"
)

// Runtime abstracts the container runtime operations the pool consumes.
type Runtime interface {
	Ping(ctx context.Context) error
	EnsureImage(ctx context.Context, ref, fallback string) (string, error)
	CreateSandbox(ctx context.Context, opts docker.CreateOpts) (string, error)
	Start(ctx context.Context, containerID string) error
	Stop(ctx context.Context, containerID string, timeout time.Duration) error
	Remove(ctx context.Context, containerID string) error
	IsRunning(ctx context.Context, containerID string) (bool, error)
	InspectState(ctx context.Context, containerID string) (string, error)
	Exec(ctx context.Context, containerID string, cmd []string, opts docker.ExecOpts) (string, error)
	Logs(ctx context.Context, containerID string, opts docker.LogsOpts) (string, error)
	Stats(ctx context.Context, containerID string) (*docker.Stats, error)
}

// Registry abstracts the durable workload registry operations the pool
// performs. Reads for reconciliation live behind the Reconciler instead.
type Registry interface {
	SetAssignment(ctx context.Context, workloadID string, a registry.Assignment) error
	UpdateStatus(ctx context.Context, workloadID, status string) error
	SetConfig(ctx context.Context, workloadID string, cfg map[string]string) error
	Delete(ctx context.Context, workloadID string) error
}

// Reconciler runs the startup orphan reconciliation pass. Implemented by
// internal/reaper; optional for tests and embedded use.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}
