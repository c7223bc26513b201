// Package pool provisions, monitors, and tears down workload sandboxes
// under a capacity ceiling. Allocation prefers a pre-warmed sandbox and
// falls back to cold creation; the durable registry mirrors every active
// assignment so reconciliation can survive unclean shutdowns.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/p-arndt/sandpool/internal/config"
	"github.com/p-arndt/sandpool/internal/docker"
	"github.com/p-arndt/sandpool/internal/metrics"
	"github.com/p-arndt/sandpool/internal/registry"
	"github.com/p-arndt/sandpool/internal/resource"
)

// Sentinel errors surfaced to allocation callers. ErrRuntimeFailure
// marks errors originating in the container runtime so transports can
// distinguish them from registry or internal failures.
var (
	ErrCapacityExceeded = errors.New("pool capacity exceeded")
	ErrWorkloadExists   = errors.New("workload already has a sandbox")
	ErrWorkloadNotFound = errors.New("workload not tracked")
	ErrRuntimeFailure   = errors.New("sandbox runtime failure")
)

const stateRunning = "running"

// workload is one in-memory tracking entry. A zero sandboxID marks a
// reservation: the capacity slot is claimed but allocation is still in
// flight.
type workload struct {
	sandboxID string
	config    map[string]string
	startedAt time.Time
}

// Manager owns the warm pool and the active-workload map. All pool state
// lives on the struct so multiple pools can coexist and tests can
// instantiate isolated instances.
type Manager struct {
	cfg    *config.Config
	rt     Runtime
	reg    Registry
	rec    Reconciler
	warm   *WarmPool
	logger *slog.Logger

	image       string // resolved during Initialize
	memoryBytes int64
	nanoCPUs    int64

	mu       sync.Mutex
	active   map[string]*workload
	handlers []EventHandler
}

func New(cfg *config.Config, rt Runtime, reg Registry, rec Reconciler, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		rt:     rt,
		reg:    reg,
		rec:    rec,
		logger: logger,
		image:  cfg.BaseImage,
		active: make(map[string]*workload),
	}

	var ok bool
	if m.memoryBytes, ok = resource.MemoryBytes(cfg.Resources.Memory); !ok {
		logger.Warn("unparsable memory spec, using default", "spec", cfg.Resources.Memory, "default_bytes", m.memoryBytes)
	}
	if m.nanoCPUs, ok = resource.NanoCPUs(cfg.Resources.CPUs); !ok {
		logger.Warn("unparsable cpu spec, using default", "spec", cfg.Resources.CPUs, "default_nano_cpus", m.nanoCPUs)
	}

	m.warm = NewWarmPool(cfg.WarmPoolSize,
		func(ctx context.Context, name string) (string, error) {
			return m.rt.CreateSandbox(ctx, m.createOpts(name, docker.RoleWarm, ""))
		},
		m.rt.Remove,
		logger,
	)

	return m
}

func (m *Manager) createOpts(name, role, workloadID string) docker.CreateOpts {
	labels := map[string]string{docker.LabelRole: role}
	if workloadID != "" {
		labels[docker.LabelWorkloadID] = workloadID
	}
	return docker.CreateOpts{
		Name:        name,
		Image:       m.image,
		Labels:      labels,
		MemoryBytes: m.memoryBytes,
		NanoCPUs:    m.nanoCPUs,
		Storage:     m.cfg.Resources.Storage,
		NetworkMode: m.cfg.NetworkMode,
	}
}

// Initialize brings the pool up: runtime connectivity probe (fatal),
// base-image readiness (degrades to the fallback image), orphan
// reconciliation (fatal), warm-pool seeding (best-effort), and the
// periodic health-check loop. ctx cancellation stops the health loop.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.rt.Ping(ctx); err != nil {
		return fmt.Errorf("container runtime unreachable: %w", err)
	}

	image, err := m.rt.EnsureImage(ctx, m.cfg.BaseImage, m.cfg.FallbackImage)
	if err != nil {
		m.logger.Warn("base image unavailable, continuing with configured ref",
			"image", m.cfg.BaseImage, "error", err)
		metrics.AdvisoryFailuresTotal.WithLabelValues("ensure_image").Inc()
	} else {
		m.image = image
	}

	if m.rec != nil {
		if err := m.rec.Reconcile(ctx); err != nil {
			return fmt.Errorf("orphan reconciliation: %w", err)
		}
	}

	m.warm.Seed(ctx, m.cfg.WarmPoolSize)

	go m.healthLoop(ctx)

	m.logger.Info("pool initialized",
		"image", m.image, "capacity", m.cfg.Capacity, "warm", m.warm.Size())
	return nil
}

// Request allocates a sandbox for workloadID: warm pool first (validating
// liveness, discarding stale entries), cold creation as fallback. The
// caller config is written durably before start; the primary assignment
// record after. Any failure past sandbox acquisition rolls the sandbox
// back, so a failed Request never leaves a running-but-unregistered
// sandbox behind.
func (m *Manager) Request(ctx context.Context, workloadID string, cfg map[string]string) (*Handle, error) {
	begin := time.Now()

	m.mu.Lock()
	if _, exists := m.active[workloadID]; exists {
		m.mu.Unlock()
		metrics.AllocationErrorsTotal.WithLabelValues("exists").Inc()
		return nil, fmt.Errorf("%w: %s", ErrWorkloadExists, workloadID)
	}
	if len(m.active) >= m.cfg.Capacity {
		m.mu.Unlock()
		metrics.AllocationErrorsTotal.WithLabelValues("capacity").Inc()
		return nil, fmt.Errorf("%w: %d/%d active", ErrCapacityExceeded, len(m.active), m.cfg.Capacity)
	}
	// Reservation: claims the capacity slot while allocation is in flight.
	m.active[workloadID] = &workload{}
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		delete(m.active, workloadID)
		m.mu.Unlock()
	}

	sandboxID, source := m.takeWarm(ctx)
	if sandboxID == "" {
		source = "cold"
		id, err := m.rt.CreateSandbox(ctx, m.createOpts(activeName(workloadID), docker.RoleActive, workloadID))
		if err != nil {
			release()
			metrics.AllocationErrorsTotal.WithLabelValues("runtime").Inc()
			return nil, fmt.Errorf("create sandbox: %w: %w", ErrRuntimeFailure, err)
		}
		sandboxID = id
	} else {
		// Top the warm pool back up; the caller already has a sandbox.
		go m.warm.Replenish(context.WithoutCancel(ctx))
	}

	if err := m.reg.SetConfig(ctx, workloadID, cfg); err != nil {
		m.rollback(ctx, workloadID, sandboxID)
		release()
		metrics.AllocationErrorsTotal.WithLabelValues("registry").Inc()
		return nil, fmt.Errorf("write workload config: %w", err)
	}

	// Idempotent for warm entries that are already running.
	if err := m.rt.Start(ctx, sandboxID); err != nil {
		m.rollback(ctx, workloadID, sandboxID)
		release()
		metrics.AllocationErrorsTotal.WithLabelValues("runtime").Inc()
		return nil, fmt.Errorf("start sandbox: %w: %w", ErrRuntimeFailure, err)
	}

	startedAt := time.Now().UTC()
	if err := m.reg.SetAssignment(ctx, workloadID, registry.Assignment{
		SandboxID: sandboxID,
		Status:    registry.StatusRunning,
		StartedAt: startedAt,
	}); err != nil {
		// Recovery contract: roll back rather than leave the sandbox
		// running without a durable record.
		m.rollback(ctx, workloadID, sandboxID)
		release()
		metrics.AllocationErrorsTotal.WithLabelValues("registry").Inc()
		return nil, fmt.Errorf("register workload: %w", err)
	}

	m.mu.Lock()
	m.active[workloadID] = &workload{sandboxID: sandboxID, config: cfg, startedAt: startedAt}
	activeCount := len(m.active)
	m.mu.Unlock()

	metrics.ActiveSandboxes.Set(float64(activeCount))
	metrics.AllocationsTotal.WithLabelValues(source).Inc()
	metrics.AllocationDuration.WithLabelValues(source).Observe(time.Since(begin).Seconds())

	m.logger.Info("sandbox allocated",
		"workload_id", workloadID, "sandbox", shortID(sandboxID), "source", source)
	m.emit(Event{Type: EventStarted, WorkloadID: workloadID, SandboxID: sandboxID})

	return NewHandle(workloadID, sandboxID, startedAt, m.rt), nil
}

// takeWarm pops warm entries until a live one is found or the pool is
// exhausted. Stale entries (removed from the runtime out of band) are an
// expected condition and are simply discarded.
func (m *Manager) takeWarm(ctx context.Context) (string, string) {
	for {
		entry, ok := m.warm.Take()
		if !ok {
			return "", ""
		}
		running, err := m.rt.IsRunning(ctx, entry.ContainerID)
		if err != nil || !running {
			m.logger.Debug("discarding stale warm entry",
				"name", entry.Name, "container", shortID(entry.ContainerID))
			continue
		}
		return entry.ContainerID, "warm"
	}
}

// rollback undoes a partially completed allocation: best-effort removal
// of the sandbox and of any registry keys written so far.
func (m *Manager) rollback(ctx context.Context, workloadID, sandboxID string) {
	if err := m.rt.Remove(ctx, sandboxID); err != nil {
		m.logger.Error("rollback: remove sandbox", "sandbox", shortID(sandboxID), "error", err)
		metrics.AdvisoryFailuresTotal.WithLabelValues("rollback_remove").Inc()
	}
	if err := m.reg.Delete(ctx, workloadID); err != nil {
		m.logger.Error("rollback: delete registry keys", "workload_id", workloadID, "error", err)
		metrics.AdvisoryFailuresTotal.WithLabelValues("rollback_registry").Inc()
	}
}

// Stop gracefully stops the workload's sandbox with the configured
// timeout and marks it stopped in the registry. Errors if the workload
// is not tracked.
func (m *Manager) Stop(ctx context.Context, workloadID string) error {
	w, err := m.lookup(workloadID)
	if err != nil {
		return err
	}

	if err := m.rt.Stop(ctx, w.sandboxID, m.stopTimeout()); err != nil {
		return fmt.Errorf("stop sandbox: %w: %w", ErrRuntimeFailure, err)
	}

	if err := m.reg.UpdateStatus(ctx, workloadID, registry.StatusStopped); err != nil {
		m.logger.Error("update registry status", "workload_id", workloadID, "error", err)
		metrics.AdvisoryFailuresTotal.WithLabelValues("registry_status").Inc()
	}

	m.logger.Info("sandbox stopped", "workload_id", workloadID, "sandbox", shortID(w.sandboxID))
	m.emit(Event{Type: EventStopped, WorkloadID: workloadID})
	return nil
}

// Remove tears the workload down: best-effort force-remove from the
// runtime, then registry cleanup, then the in-memory entry. A workload
// that is already untracked is a no-op, not an error. The in-memory
// entry survives a registry-delete failure so the caller can retry.
func (m *Manager) Remove(ctx context.Context, workloadID string) error {
	w, err := m.lookup(workloadID)
	if err != nil {
		return nil
	}

	if err := m.rt.Remove(ctx, w.sandboxID); err != nil {
		m.logger.Error("remove sandbox", "workload_id", workloadID, "error", err)
		metrics.AdvisoryFailuresTotal.WithLabelValues("remove").Inc()
	}

	if err := m.reg.Delete(ctx, workloadID); err != nil {
		return fmt.Errorf("deregister workload: %w", err)
	}

	m.mu.Lock()
	delete(m.active, workloadID)
	activeCount := len(m.active)
	m.mu.Unlock()
	metrics.ActiveSandboxes.Set(float64(activeCount))

	m.logger.Info("sandbox removed", "workload_id", workloadID, "sandbox", shortID(w.sandboxID))
	m.emit(Event{Type: EventRemoved, WorkloadID: workloadID})
	return nil
}

// StopAll concurrently stops every tracked sandbox and every warm entry.
// Each stop is isolated; the call returns only after all attempts have
// completed.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.active))
	for _, w := range m.active {
		if w.sandboxID != "" {
			ids = append(ids, w.sandboxID)
		}
	}
	m.mu.Unlock()

	for _, e := range m.warm.Drain() {
		ids = append(ids, e.ContainerID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(containerID string) {
			defer wg.Done()
			if err := m.rt.Stop(ctx, containerID, m.stopTimeout()); err != nil {
				m.logger.Error("stop sandbox", "container", shortID(containerID), "error", err)
				metrics.AdvisoryFailuresTotal.WithLabelValues("stop_all").Inc()
			}
		}(id)
	}
	wg.Wait()

	m.logger.Info("stopped all sandboxes", "count", len(ids))
}

// Handle returns a façade for an already-allocated workload.
func (m *Manager) Handle(workloadID string) (*Handle, error) {
	w, err := m.lookup(workloadID)
	if err != nil {
		return nil, err
	}
	return NewHandle(workloadID, w.sandboxID, w.startedAt, m.rt), nil
}

func (m *Manager) lookup(workloadID string) (*workload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.active[workloadID]
	if !ok || w.sandboxID == "" {
		return nil, fmt.Errorf("%w: %s", ErrWorkloadNotFound, workloadID)
	}
	return w, nil
}

func (m *Manager) stopTimeout() time.Duration {
	if m.cfg.StopTimeoutSeconds > 0 {
		return time.Duration(m.cfg.StopTimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

func activeName(workloadID string) string {
	return "sandpool-" + workloadID + "-" + time.Now().UTC().Format("20060102-150405")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
