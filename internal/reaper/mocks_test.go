package reaper

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/p-arndt/sandpool/internal/docker"
)

// MockRuntime mocks the Runtime interface.
type MockRuntime struct {
	mock.Mock
}

func (m *MockRuntime) ListManaged(ctx context.Context) ([]docker.Summary, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]docker.Summary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRuntime) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	args := m.Called(ctx, containerID, timeout)
	return args.Error(0)
}

func (m *MockRuntime) Remove(ctx context.Context, containerID string) error {
	args := m.Called(ctx, containerID)
	return args.Error(0)
}

// MockRegistry mocks the Registry interface.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) AssignedSandboxIDs(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}
