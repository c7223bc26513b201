package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/p-arndt/sandpool/internal/docker"
	"github.com/p-arndt/sandpool/internal/journal"
	"github.com/p-arndt/sandpool/internal/pool"
)

// MockPoolService mocks the PoolService interface.
type MockPoolService struct {
	mock.Mock
}

func (m *MockPoolService) Request(ctx context.Context, workloadID string, cfg map[string]string) (*pool.Handle, error) {
	args := m.Called(ctx, workloadID, cfg)
	if h := args.Get(0); h != nil {
		return h.(*pool.Handle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPoolService) Stop(ctx context.Context, workloadID string) error {
	args := m.Called(ctx, workloadID)
	return args.Error(0)
}

func (m *MockPoolService) Remove(ctx context.Context, workloadID string) error {
	args := m.Called(ctx, workloadID)
	return args.Error(0)
}

func (m *MockPoolService) Status(ctx context.Context) (*pool.PoolStatus, error) {
	args := m.Called(ctx)
	if st := args.Get(0); st != nil {
		return st.(*pool.PoolStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPoolService) Exec(ctx context.Context, workloadID string, cmd []string, opts docker.ExecOpts) (string, error) {
	args := m.Called(ctx, workloadID, cmd, opts)
	return args.String(0), args.Error(1)
}

func (m *MockPoolService) SetEnv(ctx context.Context, workloadID string, env map[string]string) error {
	args := m.Called(ctx, workloadID, env)
	return args.Error(0)
}

func (m *MockPoolService) Logs(ctx context.Context, workloadID string, opts docker.LogsOpts) (string, error) {
	args := m.Called(ctx, workloadID, opts)
	return args.String(0), args.Error(1)
}

func (m *MockPoolService) Stats(ctx context.Context, workloadID string) (*docker.Stats, error) {
	args := m.Called(ctx, workloadID)
	if s := args.Get(0); s != nil {
		return s.(*docker.Stats), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEventLog mocks the EventLog interface.
type MockEventLog struct {
	mock.Mock
}

func (m *MockEventLog) Recent(limit int) ([]journal.Entry, error) {
	args := m.Called(limit)
	if e := args.Get(0); e != nil {
		return e.([]journal.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}
