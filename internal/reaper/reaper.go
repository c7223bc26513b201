// Package reaper removes managed containers that no workload claims.
// Orphans appear after unclean daemon shutdowns: the container outlives
// the in-memory pool state, and only the durable registry knows which
// ones still belong to someone.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-arndt/sandpool/internal/metrics"
	"github.com/p-arndt/sandpool/internal/pool"
)

type Reaper struct {
	rt          Runtime
	reg         Registry
	logger      *slog.Logger
	stopTimeout time.Duration
	interval    time.Duration
}

func New(rt Runtime, reg Registry, stopTimeout, interval time.Duration, logger *slog.Logger) *Reaper {
	if stopTimeout <= 0 {
		stopTimeout = 30 * time.Second
	}
	return &Reaper{
		rt:          rt,
		reg:         reg,
		logger:      logger,
		stopTimeout: stopTimeout,
		interval:    interval,
	}
}

// Reconcile is the startup sweep: it removes every managed container the
// registry does not assign to a workload, stale warm entries included.
// It must run before the warm pool is seeded, while any warm-named
// container is by definition left over from a previous run.
func (r *Reaper) Reconcile(ctx context.Context) error {
	return r.sweep(ctx, false)
}

// creationGrace is how long a periodic sweep leaves a just-created
// container alone. The assignment snapshot is read before the container
// list, and an allocation registers its assignment only after the
// container exists, so a sandbox mid-allocation can show up in the list
// without appearing assigned. By the next tick it is either registered
// or a genuine orphan.
const creationGrace = time.Minute

// sweep removes unassigned managed containers. With keepWarm set,
// warm-named containers survive; the live pool owns them. Per-container
// failures are logged and skipped so one stuck container cannot block
// the sweep, but a failure to read the assignment view aborts: without
// it every container would look like an orphan.
func (r *Reaper) sweep(ctx context.Context, keepWarm bool) error {
	cutoff := time.Now().Add(-creationGrace)

	assigned, err := r.reg.AssignedSandboxIDs(ctx)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}

	containers, err := r.rt.ListManaged(ctx)
	if err != nil {
		return fmt.Errorf("list managed containers: %w", err)
	}

	removed := 0
	for _, c := range containers {
		if workloadID, ok := assigned[c.ID]; ok {
			r.logger.Debug("keeping assigned container",
				"container", shortID(c.ID), "workload_id", workloadID)
			continue
		}
		if keepWarm && pool.IsWarmName(c.Name) {
			r.logger.Debug("keeping warm container", "name", c.Name)
			continue
		}
		// Only the startup pass (keepWarm false) runs before the pool
		// serves requests; a live sweep must not race an allocation in
		// flight.
		if keepWarm && c.Created.After(cutoff) {
			r.logger.Debug("keeping recently created container",
				"container", shortID(c.ID), "created", c.Created)
			continue
		}

		r.logger.Info("removing orphaned container",
			"container", shortID(c.ID), "name", c.Name, "state", c.State)
		if err := r.rt.Stop(ctx, c.ID, r.stopTimeout); err != nil {
			r.logger.Warn("stop orphan", "container", shortID(c.ID), "error", err)
		}
		if err := r.rt.Remove(ctx, c.ID); err != nil {
			r.logger.Error("remove orphan", "container", shortID(c.ID), "error", err)
			metrics.AdvisoryFailuresTotal.WithLabelValues("reap").Inc()
			continue
		}
		removed++
		metrics.OrphansReapedTotal.Inc()
	}

	if removed > 0 {
		r.logger.Info("reconciliation complete", "removed", removed, "scanned", len(containers))
	}
	return nil
}

// Run sweeps on every interval tick until ctx is cancelled, keeping
// warm containers alive. The startup pass is Reconcile, invoked
// separately during pool initialization before the warm pool is seeded.
// Sweep failures are logged, not fatal; the next tick retries.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sweep(ctx, true); err != nil {
				r.logger.Error("periodic reconciliation failed", "error", err)
				metrics.AdvisoryFailuresTotal.WithLabelValues("reconcile").Inc()
			}
		}
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
