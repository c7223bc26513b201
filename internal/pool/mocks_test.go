package pool

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/p-arndt/sandpool/internal/docker"
	"github.com/p-arndt/sandpool/internal/registry"
)

// MockRuntime mocks the Runtime interface.
type MockRuntime struct {
	mock.Mock
}

func (m *MockRuntime) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRuntime) EnsureImage(ctx context.Context, ref, fallback string) (string, error) {
	args := m.Called(ctx, ref, fallback)
	return args.String(0), args.Error(1)
}

func (m *MockRuntime) CreateSandbox(ctx context.Context, opts docker.CreateOpts) (string, error) {
	args := m.Called(ctx, opts)
	return args.String(0), args.Error(1)
}

func (m *MockRuntime) Start(ctx context.Context, containerID string) error {
	args := m.Called(ctx, containerID)
	return args.Error(0)
}

func (m *MockRuntime) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	args := m.Called(ctx, containerID, timeout)
	return args.Error(0)
}

func (m *MockRuntime) Remove(ctx context.Context, containerID string) error {
	args := m.Called(ctx, containerID)
	return args.Error(0)
}

func (m *MockRuntime) IsRunning(ctx context.Context, containerID string) (bool, error) {
	args := m.Called(ctx, containerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRuntime) InspectState(ctx context.Context, containerID string) (string, error) {
	args := m.Called(ctx, containerID)
	return args.String(0), args.Error(1)
}

func (m *MockRuntime) Exec(ctx context.Context, containerID string, cmd []string, opts docker.ExecOpts) (string, error) {
	args := m.Called(ctx, containerID, cmd, opts)
	return args.String(0), args.Error(1)
}

func (m *MockRuntime) Logs(ctx context.Context, containerID string, opts docker.LogsOpts) (string, error) {
	args := m.Called(ctx, containerID, opts)
	return args.String(0), args.Error(1)
}

func (m *MockRuntime) Stats(ctx context.Context, containerID string) (*docker.Stats, error) {
	args := m.Called(ctx, containerID)
	if s := args.Get(0); s != nil {
		return s.(*docker.Stats), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRegistry mocks the Registry interface.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) SetAssignment(ctx context.Context, workloadID string, a registry.Assignment) error {
	args := m.Called(ctx, workloadID, a)
	return args.Error(0)
}

func (m *MockRegistry) UpdateStatus(ctx context.Context, workloadID, status string) error {
	args := m.Called(ctx, workloadID, status)
	return args.Error(0)
}

func (m *MockRegistry) SetConfig(ctx context.Context, workloadID string, cfg map[string]string) error {
	args := m.Called(ctx, workloadID, cfg)
	return args.Error(0)
}

func (m *MockRegistry) Delete(ctx context.Context, workloadID string) error {
	args := m.Called(ctx, workloadID)
	return args.Error(0)
}

// MockReconciler mocks the Reconciler interface.
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
