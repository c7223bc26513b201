package pool

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-arndt/sandpool/internal/metrics"
)

// warmNamePrefix marks unassigned pre-created sandboxes. Periodic
// reconciliation sweeps must skip containers carrying it; the startup
// pass removes them, since it runs before the pool is seeded and a
// previous run's warm entries cannot be reused.
const warmNamePrefix = "sandpool-warm-"

// IsWarmName reports whether a container name follows the warm-pool
// naming convention. Accepts the leading slash Docker puts on names.
func IsWarmName(name string) bool {
	return strings.HasPrefix(strings.TrimPrefix(name, "/"), warmNamePrefix)
}

func warmName() string {
	return warmNamePrefix + time.Now().UTC().Format("20060102-150405") + "-" + uuid.New().String()[:8]
}

// Entry is one unassigned sandbox held for fast allocation. It is not
// verified live until an allocation attempt probes it.
type Entry struct {
	ContainerID string
	Name        string
}

// CreateFunc creates one warm sandbox with the given name and returns its
// container id. Supplied by the Manager so the warm pool stays ignorant
// of images and resource limits.
type CreateFunc func(ctx context.Context, name string) (string, error)

// RemoveFunc removes an excess sandbox from the runtime.
type RemoveFunc func(ctx context.Context, containerID string) error

// WarmPool holds pre-created, not-yet-assigned sandboxes. The target size
// is a goal, not a guarantee: seeding and replenishment are best-effort
// and allocation always has a cold-path fallback.
type WarmPool struct {
	target  int
	create  CreateFunc
	remove  RemoveFunc
	logger  *slog.Logger
	entries chan Entry
}

func NewWarmPool(target int, create CreateFunc, remove RemoveFunc, logger *slog.Logger) *WarmPool {
	capacity := target
	if capacity < 1 {
		capacity = 1
	}
	return &WarmPool{
		target:  target,
		create:  create,
		remove:  remove,
		logger:  logger,
		entries: make(chan Entry, capacity),
	}
}

// Seed creates count warm sandboxes. A failure creating any individual
// sandbox is logged and skipped; seeding never fails pool startup.
func (w *WarmPool) Seed(ctx context.Context, count int) {
	for i := 0; i < count; i++ {
		w.createOne(ctx)
	}
}

// Take pops one entry if any is available. The caller must verify the
// entry still exists in the runtime before using it.
func (w *WarmPool) Take() (Entry, bool) {
	select {
	case e := <-w.entries:
		metrics.WarmPoolSize.Set(float64(len(w.entries)))
		return e, true
	default:
		return Entry{}, false
	}
}

// Replenish tops the pool back up to target size. Called fire-and-forget
// after a Take; failures are logged, never surfaced.
func (w *WarmPool) Replenish(ctx context.Context) {
	for len(w.entries) < w.target {
		if !w.createOne(ctx) {
			return
		}
	}
}

// Drain empties the pool and returns all entries, for bulk teardown.
func (w *WarmPool) Drain() []Entry {
	var drained []Entry
	for {
		select {
		case e := <-w.entries:
			drained = append(drained, e)
		default:
			metrics.WarmPoolSize.Set(float64(len(w.entries)))
			return drained
		}
	}
}

// Size returns the current fill level.
func (w *WarmPool) Size() int {
	return len(w.entries)
}

func (w *WarmPool) createOne(ctx context.Context) bool {
	name := warmName()
	containerID, err := w.create(ctx, name)
	if err != nil {
		w.logger.Error("failed to create warm sandbox", "name", name, "error", err)
		metrics.AdvisoryFailuresTotal.WithLabelValues("warm_create").Inc()
		return false
	}

	select {
	case w.entries <- Entry{ContainerID: containerID, Name: name}:
		w.logger.Info("created warm sandbox", "name", name, "container", shortID(containerID))
		metrics.WarmPoolSize.Set(float64(len(w.entries)))
		return true
	default:
		// Pool filled while we were creating; remove the excess sandbox.
		w.logger.Info("warm pool full, removing excess sandbox", "container", shortID(containerID))
		if err := w.remove(ctx, containerID); err != nil {
			w.logger.Error("failed to remove excess warm sandbox", "container", shortID(containerID), "error", err)
			metrics.AdvisoryFailuresTotal.WithLabelValues("warm_remove").Inc()
		}
		return false
	}
}
