package pool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/p-arndt/sandpool/internal/docker"
)

// envFilePath is where SetEnv materializes the key=value definitions.
// Processes inside the sandbox must re-read the file; this is a file
// write, not process-level env injection.
const envFilePath = "/etc/sandpool.env"

// Handle is a per-allocation façade bound to one sandbox id. It holds no
// pool-level state, so handles can be shared freely across goroutines.
type Handle struct {
	workloadID string
	sandboxID  string
	startedAt  time.Time
	rt         Runtime
}

func NewHandle(workloadID, sandboxID string, startedAt time.Time, rt Runtime) *Handle {
	return &Handle{
		workloadID: workloadID,
		sandboxID:  sandboxID,
		startedAt:  startedAt,
		rt:         rt,
	}
}

func (h *Handle) WorkloadID() string   { return h.workloadID }
func (h *Handle) SandboxID() string    { return h.sandboxID }
func (h *Handle) StartedAt() time.Time { return h.startedAt }

// Exec runs a command inside the sandbox. Foreground mode buffers the
// combined output; detached mode starts the process and returns
// immediately with no output.
func (h *Handle) Exec(ctx context.Context, cmd []string, opts docker.ExecOpts) (string, error) {
	out, err := h.rt.Exec(ctx, h.sandboxID, cmd, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRuntimeFailure, err)
	}
	return out, nil
}

// SetEnv writes a flat key=value env definition into the sandbox at
// envFilePath, keys sorted for deterministic content.
func (h *Handle) SetEnv(ctx context.Context, env map[string]string) error {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(env[k])
		b.WriteString("\n")
	}

	script := "cat > " + envFilePath + " <<'SANDPOOL_EOF'\n" + b.String() + "SANDPOOL_EOF\n"
	if _, err := h.Exec(ctx, []string{"sh", "-c", script}, docker.ExecOpts{}); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

func (h *Handle) Start(ctx context.Context) error {
	return h.rt.Start(ctx, h.sandboxID)
}

func (h *Handle) Stop(ctx context.Context, timeout time.Duration) error {
	return h.rt.Stop(ctx, h.sandboxID, timeout)
}

func (h *Handle) Remove(ctx context.Context) error {
	return h.rt.Remove(ctx, h.sandboxID)
}

// Logs returns the trailing lines of the sandbox's combined output.
func (h *Handle) Logs(ctx context.Context, opts docker.LogsOpts) (string, error) {
	out, err := h.rt.Logs(ctx, h.sandboxID, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRuntimeFailure, err)
	}
	return out, nil
}

// Stats returns a point-in-time resource usage summary.
func (h *Handle) Stats(ctx context.Context) (*docker.Stats, error) {
	s, err := h.rt.Stats(ctx, h.sandboxID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntimeFailure, err)
	}
	return s, nil
}
