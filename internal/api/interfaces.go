package api

import (
	"context"

	"github.com/p-arndt/sandpool/internal/docker"
	"github.com/p-arndt/sandpool/internal/journal"
	"github.com/p-arndt/sandpool/internal/pool"
)

// PoolService abstracts the pool operations the API handlers need.
type PoolService interface {
	Request(ctx context.Context, workloadID string, cfg map[string]string) (*pool.Handle, error)
	Stop(ctx context.Context, workloadID string) error
	Remove(ctx context.Context, workloadID string) error
	Status(ctx context.Context) (*pool.PoolStatus, error)
	Exec(ctx context.Context, workloadID string, cmd []string, opts docker.ExecOpts) (string, error)
	SetEnv(ctx context.Context, workloadID string, env map[string]string) error
	Logs(ctx context.Context, workloadID string, opts docker.LogsOpts) (string, error)
	Stats(ctx context.Context, workloadID string) (*docker.Stats, error)
}

// EventLog is the read side of the event journal.
type EventLog interface {
	Recent(limit int) ([]journal.Entry, error)
}
