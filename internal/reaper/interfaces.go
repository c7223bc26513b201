package reaper

import (
	"context"
	"time"

	"github.com/p-arndt/sandpool/internal/docker"
)

// Runtime is the slice of the container runtime the reaper needs.
type Runtime interface {
	ListManaged(ctx context.Context) ([]docker.Summary, error)
	Stop(ctx context.Context, containerID string, timeout time.Duration) error
	Remove(ctx context.Context, containerID string) error
}

// Registry exposes the assignment view the reaper checks containers
// against.
type Registry interface {
	AssignedSandboxIDs(ctx context.Context) (map[string]string, error)
}
