package pool

import (
	"context"

	"github.com/p-arndt/sandpool/internal/docker"
)

// Workload-id addressed conveniences over Handle, used by the HTTP API.

func (m *Manager) Exec(ctx context.Context, workloadID string, cmd []string, opts docker.ExecOpts) (string, error) {
	h, err := m.Handle(workloadID)
	if err != nil {
		return "", err
	}
	return h.Exec(ctx, cmd, opts)
}

func (m *Manager) SetEnv(ctx context.Context, workloadID string, env map[string]string) error {
	h, err := m.Handle(workloadID)
	if err != nil {
		return err
	}
	return h.SetEnv(ctx, env)
}

func (m *Manager) Logs(ctx context.Context, workloadID string, opts docker.LogsOpts) (string, error) {
	h, err := m.Handle(workloadID)
	if err != nil {
		return "", err
	}
	return h.Logs(ctx, opts)
}

func (m *Manager) Stats(ctx context.Context, workloadID string) (*docker.Stats, error) {
	h, err := m.Handle(workloadID)
	if err != nil {
		return nil, err
	}
	return h.Stats(ctx)
}
