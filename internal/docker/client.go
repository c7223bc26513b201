// Package docker adapts the external container runtime for the pool.
// Only the operations the pool consumes are wrapped; everything else
// stays behind the Docker SDK.
package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

// Ownership labels. Every container the pool creates carries LabelManaged;
// reconciliation lists by it and must never touch unlabeled containers.
const (
	LabelManaged    = "sandpool.managed"
	LabelWorkloadID = "sandpool.workload_id"
	LabelRole       = "sandpool.role" // "active" or "warm"

	RoleActive = "active"
	RoleWarm   = "warm"
)

// The two fixed container ports every sandbox exposes, mapped to
// ephemeral host ports by the runtime.
var exposedPorts = []nat.Port{"3000/tcp", "8080/tcp"}

type Client struct {
	docker *client.Client
}

func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Client{docker: cli}, nil
}

func (c *Client) Close() error {
	return c.docker.Close()
}

// Ping verifies the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.docker.Ping(ctx)
	return err
}

// IsNotFound reports whether err is the runtime's "no such object" error.
// Stale warm-pool entries and externally removed sandboxes surface as this.
func IsNotFound(err error) bool {
	return client.IsErrNotFound(err)
}

// EnsureImage makes sure ref is locally available: inspect, then pull,
// then pull the fallback and tag it as ref. Returns the usable image ref.
func (c *Client) EnsureImage(ctx context.Context, ref, fallback string) (string, error) {
	if _, err := c.docker.ImageInspect(ctx, ref); err == nil {
		return ref, nil
	}

	if rc, err := c.docker.ImagePull(ctx, ref, image.PullOptions{}); err == nil {
		defer rc.Close()
		if _, err := io.Copy(io.Discard, rc); err == nil {
			return ref, nil
		}
	}

	if fallback == "" || fallback == ref {
		return "", fmt.Errorf("image unavailable: %s", ref)
	}

	rc, err := c.docker.ImagePull(ctx, fallback, image.PullOptions{})
	if err != nil {
		return "", fmt.Errorf("fallback image unavailable (%s): %w", fallback, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return "", fmt.Errorf("pull fallback image: %w", err)
	}
	if err := c.docker.ImageTag(ctx, fallback, ref); err != nil {
		return fallback, nil
	}
	return ref, nil
}

type CreateOpts struct {
	Name        string
	Image       string
	Labels      map[string]string
	MemoryBytes int64
	NanoCPUs    int64
	Storage     string // storage-opt size spec, empty = driver default
	NetworkMode string
	Env         []string
}

// CreateSandbox creates and starts a sandbox container with the pool's
// ownership labels, resource limits, and ephemeral host-port bindings
// for the two fixed container ports. The container idles on a keep-alive
// command until a caller execs into it.
func (c *Client) CreateSandbox(ctx context.Context, opts CreateOpts) (string, error) {
	labels := map[string]string{
		LabelManaged: "true",
	}
	for k, v := range opts.Labels {
		labels[k] = v
	}

	portSet := nat.PortSet{}
	portMap := nat.PortMap{}
	for _, p := range exposedPorts {
		portSet[p] = struct{}{}
		// Empty HostPort lets the runtime assign an ephemeral port.
		portMap[p] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: ""}}
	}

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:   opts.MemoryBytes,
			NanoCPUs: opts.NanoCPUs,
		},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
		PortBindings:  portMap,
	}
	if opts.NetworkMode != "" {
		hostCfg.NetworkMode = container.NetworkMode(opts.NetworkMode)
	}
	if opts.Storage != "" {
		hostCfg.StorageOpt = map[string]string{"size": opts.Storage}
	}

	containerCfg := &container.Config{
		Image:        opts.Image,
		Labels:       labels,
		Env:          opts.Env,
		ExposedPorts: portSet,
		Cmd:          []string{"sleep", "infinity"},
	}

	resp, err := c.docker.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("container create: %w", err)
	}

	if err := c.docker.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Clean up on start failure.
		c.docker.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("container start: %w", err)
	}

	return resp.ID, nil
}

// Start is idempotent: starting an already-running container is a no-op.
func (c *Client) Start(ctx context.Context, containerID string) error {
	if err := c.docker.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("container start: %w", err)
	}
	return nil
}

// Stop gracefully stops a container, force-killing after timeout.
func (c *Client) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	secs := int(timeout.Seconds())
	if err := c.docker.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &secs}); err != nil {
		return fmt.Errorf("container stop: %w", err)
	}
	return nil
}

// Remove force-removes a container and its anonymous volumes. Already-gone
// containers are not an error.
func (c *Client) Remove(ctx context.Context, containerID string) error {
	err := c.docker.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("container remove: %w", err)
	}
	return nil
}

// IsRunning reports whether a container is currently running. A
// container that no longer exists is simply not running, not an error.
func (c *Client) IsRunning(ctx context.Context, containerID string) (bool, error) {
	info, err := c.docker.ContainerInspect(ctx, containerID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return info.State.Running, nil
}

// InspectState returns the container's live status string ("running",
// "exited", ...).
func (c *Client) InspectState(ctx context.Context, containerID string) (string, error) {
	info, err := c.docker.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", err
	}
	return string(info.State.Status), nil
}

// Summary describes one pool-owned container from a list call.
type Summary struct {
	ID      string
	Name    string
	Labels  map[string]string
	State   string
	Created time.Time
}

// ListManaged returns all containers (including stopped ones) carrying the
// pool's ownership label.
func (c *Client) ListManaged(ctx context.Context) ([]Summary, error) {
	f := filters.NewArgs()
	f.Add("label", LabelManaged+"=true")

	containers, err := c.docker.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}

	result := make([]Summary, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			// Docker reports names with a leading slash.
			name = strings.TrimPrefix(ctr.Names[0], "/")
		}
		result = append(result, Summary{
			ID:      ctr.ID,
			Name:    name,
			Labels:  ctr.Labels,
			State:   string(ctr.State),
			Created: time.Unix(ctr.Created, 0),
		})
	}
	return result, nil
}

type ExecOpts struct {
	WorkingDir string
	Detach     bool
}

// Exec runs a command inside the container. In foreground mode it buffers
// the combined stdout+stderr and returns it on stream end; detached mode
// starts the process and returns immediately with no output.
func (c *Client) Exec(ctx context.Context, containerID string, cmd []string, opts ExecOpts) (string, error) {
	execCfg := container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   opts.WorkingDir,
		AttachStdout: !opts.Detach,
		AttachStderr: !opts.Detach,
		Detach:       opts.Detach,
	}

	execResp, err := c.docker.ContainerExecCreate(ctx, containerID, execCfg)
	if err != nil {
		return "", fmt.Errorf("exec create: %w", err)
	}

	if opts.Detach {
		if err := c.docker.ContainerExecStart(ctx, execResp.ID, container.ExecStartOptions{Detach: true}); err != nil {
			return "", fmt.Errorf("exec start: %w", err)
		}
		return "", nil
	}

	attachResp, err := c.docker.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", fmt.Errorf("exec attach: %w", err)
	}
	defer attachResp.Close()

	// Demultiplex Docker's stdout/stderr stream (8-byte headers) into one
	// combined buffer.
	var combined bytes.Buffer
	if _, err := stdcopy.StdCopy(&combined, &combined, attachResp.Reader); err != nil {
		return "", fmt.Errorf("exec read: %w", err)
	}

	return combined.String(), nil
}

type LogsOpts struct {
	Stdout bool
	Stderr bool
	Tail   string // line count or "all"
}

// Logs returns the trailing Tail lines of the container's combined output.
func (c *Client) Logs(ctx context.Context, containerID string, opts LogsOpts) (string, error) {
	if !opts.Stdout && !opts.Stderr {
		opts.Stdout, opts.Stderr = true, true
	}
	tail := opts.Tail
	if tail == "" {
		tail = "all"
	}

	rc, err := c.docker.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: opts.Stdout,
		ShowStderr: opts.Stderr,
		Tail:       tail,
	})
	if err != nil {
		return "", fmt.Errorf("container logs: %w", err)
	}
	defer rc.Close()

	var combined bytes.Buffer
	if _, err := stdcopy.StdCopy(&combined, &combined, rc); err != nil {
		return "", fmt.Errorf("logs read: %w", err)
	}
	return combined.String(), nil
}

// Stats takes a single runtime stats snapshot (it carries both the current
// and the previous CPU sample) and condenses it into a Stats summary.
func (c *Client) Stats(ctx context.Context, containerID string) (*Stats, error) {
	resp, err := c.docker.ContainerStats(ctx, containerID, false)
	if err != nil {
		return nil, fmt.Errorf("container stats: %w", err)
	}
	defer resp.Body.Close()

	var raw container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	s := summarize(&raw)
	return &s, nil
}
