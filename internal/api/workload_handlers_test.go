package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/p-arndt/sandpool/internal/config"
	"github.com/p-arndt/sandpool/internal/journal"
	"github.com/p-arndt/sandpool/internal/pool"
)

func testAPIServer(p PoolService, events EventLog) *Server {
	return &Server{
		cfg:    &config.Config{},
		pool:   p,
		events: events,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		mux:    http.NewServeMux(),
	}
}

func TestHandleRequestWorkload_Success(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	now := time.Now().UTC()
	mockPool.On("Request", mock.Anything, "build-42", map[string]string{"budget": "50"}).
		Return(pool.NewHandle("build-42", "sandbox-abc", now, nil), nil)

	body := `{"workload_id":"build-42","config":{"budget":"50"}}`
	req := httptest.NewRequest("POST", "/v1/workloads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.handleRequestWorkload(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp workloadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "build-42", resp.WorkloadID)
	assert.Equal(t, "sandbox-abc", resp.SandboxID)
}

func TestHandleRequestWorkload_InvalidJSON(t *testing.T) {
	s := testAPIServer(&MockPoolService{}, nil)

	req := httptest.NewRequest("POST", "/v1/workloads", strings.NewReader("{invalid"))
	rec := httptest.NewRecorder()

	s.handleRequestWorkload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRequestWorkload_OversizedBody(t *testing.T) {
	s := testAPIServer(&MockPoolService{}, nil)

	pad := strings.Repeat("x", int(maxJSONBodyBytes)+1)
	body := `{"workload_id":"w1","config":{"pad":"` + pad + `"}}`
	req := httptest.NewRequest("POST", "/v1/workloads", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleRequestWorkload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRequestWorkload_InvalidID(t *testing.T) {
	s := testAPIServer(&MockPoolService{}, nil)

	body := `{"workload_id":"-bad id!"}`
	req := httptest.NewRequest("POST", "/v1/workloads", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleRequestWorkload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, ErrCodeInvalidRequest, apiErr.Code)
}

func TestHandleRequestWorkload_CapacityExceeded(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	mockPool.On("Request", mock.Anything, "w1", mock.Anything).
		Return(nil, fmt.Errorf("%w: 4/4 active", pool.ErrCapacityExceeded))

	body := `{"workload_id":"w1"}`
	req := httptest.NewRequest("POST", "/v1/workloads", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleRequestWorkload(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var apiErr APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, ErrCodeCapacityExceeded, apiErr.Code)
}

func TestHandleRequestWorkload_AlreadyExists(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	mockPool.On("Request", mock.Anything, "w1", mock.Anything).
		Return(nil, fmt.Errorf("%w: w1", pool.ErrWorkloadExists))

	body := `{"workload_id":"w1"}`
	req := httptest.NewRequest("POST", "/v1/workloads", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleRequestWorkload(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleRequestWorkload_RuntimeFailure(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	mockPool.On("Request", mock.Anything, "w1", mock.Anything).
		Return(nil, fmt.Errorf("create sandbox: %w: image missing", pool.ErrRuntimeFailure))

	body := `{"workload_id":"w1"}`
	req := httptest.NewRequest("POST", "/v1/workloads", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleRequestWorkload(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var apiErr APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, ErrCodeRuntimeError, apiErr.Code)
}

func TestHandleStopWorkload_Success(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	mockPool.On("Stop", mock.Anything, "w1").Return(nil)

	req := httptest.NewRequest("POST", "/v1/workloads/w1/stop", nil)
	req.SetPathValue("id", "w1")
	rec := httptest.NewRecorder()

	s.handleStopWorkload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockPool.AssertExpectations(t)
}

func TestHandleStopWorkload_NotFound(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	mockPool.On("Stop", mock.Anything, "ghost").
		Return(fmt.Errorf("%w: ghost", pool.ErrWorkloadNotFound))

	req := httptest.NewRequest("POST", "/v1/workloads/ghost/stop", nil)
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()

	s.handleStopWorkload(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, ErrCodeWorkloadNotFound, apiErr.Code)
}

func TestHandleRemoveWorkload_Success(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	mockPool.On("Remove", mock.Anything, "w1").Return(nil)

	req := httptest.NewRequest("DELETE", "/v1/workloads/w1", nil)
	req.SetPathValue("id", "w1")
	rec := httptest.NewRecorder()

	s.handleRemoveWorkload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	mockPool := &MockPoolService{}
	s := testAPIServer(mockPool, nil)

	mockPool.On("Status", mock.Anything).Return(&pool.PoolStatus{
		Active:    2,
		Capacity:  4,
		Available: 2,
		WarmSize:  1,
	}, nil)

	req := httptest.NewRequest("GET", "/v1/status", nil)
	rec := httptest.NewRecorder()

	s.handleStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var st pool.PoolStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 1, st.WarmSize)
}

func TestHandleEvents(t *testing.T) {
	mockEvents := &MockEventLog{}
	s := testAPIServer(&MockPoolService{}, mockEvents)

	mockEvents.On("Recent", 10).Return([]journal.Entry{
		{ID: 2, Type: "sandbox:stopped", WorkloadID: "w1"},
		{ID: 1, Type: "sandbox:started", WorkloadID: "w1"},
	}, nil)

	req := httptest.NewRequest("GET", "/v1/events?limit=10", nil)
	rec := httptest.NewRecorder()

	s.handleEvents(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []journal.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "sandbox:stopped", entries[0].Type)
}

func TestHandleEvents_InvalidLimit(t *testing.T) {
	s := testAPIServer(&MockPoolService{}, &MockEventLog{})

	req := httptest.NewRequest("GET", "/v1/events?limit=zero", nil)
	rec := httptest.NewRecorder()

	s.handleEvents(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
