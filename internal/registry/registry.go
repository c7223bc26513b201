// Package registry is the durable source of truth for workload→sandbox
// assignments. It survives daemon restarts; the pool's in-memory map is
// only the fast path for the current process. Reconciliation consults
// this store to decide which runtime containers are still claimed.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the workload has no durable assignment.
var ErrNotFound = errors.New("registry: workload not found")

// Workload status values mirrored into the primary record.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

const (
	keyPrefix    = "sandpool:workload:"
	configSuffix = ":config"

	fieldSandboxID = "sandbox_id"
	fieldStatus    = "status"
	fieldStartedAt = "started_at"
)

// Assignment is the primary per-workload record.
type Assignment struct {
	SandboxID string
	Status    string
	StartedAt time.Time
}

type Client struct {
	rdb *redisv9.Client
}

func New(opts *redisv9.Options) *Client {
	return &Client{rdb: redisv9.NewClient(opts)}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func workloadKey(workloadID string) string {
	return keyPrefix + workloadID
}

func configKey(workloadID string) string {
	return keyPrefix + workloadID + configSuffix
}

// SetAssignment writes the primary record for a workload.
// Underlying Redis: HSET sandpool:workload:{id} sandbox_id ... status ... started_at ...
func (c *Client) SetAssignment(ctx context.Context, workloadID string, a Assignment) error {
	key := workloadKey(workloadID)
	err := c.rdb.HSet(ctx, key,
		fieldSandboxID, a.SandboxID,
		fieldStatus, a.Status,
		fieldStartedAt, a.StartedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("registry: HSET %s: %w", key, err)
	}
	return nil
}

// UpdateStatus rewrites only the status field of the primary record.
func (c *Client) UpdateStatus(ctx context.Context, workloadID string, status string) error {
	key := workloadKey(workloadID)
	if err := c.rdb.HSet(ctx, key, fieldStatus, status).Err(); err != nil {
		return fmt.Errorf("registry: HSET %s status: %w", key, err)
	}
	return nil
}

// GetAssignment returns the primary record, or ErrNotFound.
func (c *Client) GetAssignment(ctx context.Context, workloadID string) (*Assignment, error) {
	key := workloadKey(workloadID)
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: HGETALL %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	a := &Assignment{
		SandboxID: fields[fieldSandboxID],
		Status:    fields[fieldStatus],
	}
	if raw := fields[fieldStartedAt]; raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			a.StartedAt = ts
		}
	}
	return a, nil
}

// SetConfig writes the caller-supplied configuration blob under the
// workload's :config sub-key, separate from the primary record.
func (c *Client) SetConfig(ctx context.Context, workloadID string, cfg map[string]string) error {
	if len(cfg) == 0 {
		return nil
	}
	key := configKey(workloadID)
	values := make([]any, 0, len(cfg)*2)
	for k, v := range cfg {
		values = append(values, k, v)
	}
	if err := c.rdb.HSet(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("registry: HSET %s: %w", key, err)
	}
	return nil
}

// GetConfig returns the configuration blob; an absent key yields an
// empty map, not an error.
func (c *Client) GetConfig(ctx context.Context, workloadID string) (map[string]string, error) {
	key := configKey(workloadID)
	cfg, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: HGETALL %s: %w", key, err)
	}
	return cfg, nil
}

// Delete removes both the primary record and the config sub-key.
// Deleting an absent workload is a no-op.
func (c *Client) Delete(ctx context.Context, workloadID string) error {
	if err := c.rdb.Del(ctx, workloadKey(workloadID), configKey(workloadID)).Err(); err != nil {
		return fmt.Errorf("registry: DEL %s: %w", workloadID, err)
	}
	return nil
}

// ListWorkloadIDs enumerates all workload ids with a primary record,
// via a key-prefix scan. Config sub-keys are skipped.
func (c *Client) ListWorkloadIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("registry: SCAN %s*: %w", keyPrefix, err)
		}
		for _, key := range keys {
			if strings.HasSuffix(key, configSuffix) {
				continue
			}
			ids = append(ids, strings.TrimPrefix(key, keyPrefix))
		}
		cursor = next
		if cursor == 0 {
			return ids, nil
		}
	}
}

// AssignedSandboxIDs returns sandbox id → workload id for every workload
// with a primary record. Reconciliation uses this to recognize containers
// that are still claimed after a restart.
func (c *Client) AssignedSandboxIDs(ctx context.Context) (map[string]string, error) {
	ids, err := c.ListWorkloadIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redisv9.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, workloadKey(id), fieldSandboxID)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redisv9.Nil) {
		return nil, fmt.Errorf("registry: pipeline HGET sandbox_id: %w", err)
	}

	assigned := make(map[string]string, len(ids))
	for i, cmd := range cmds {
		sandboxID, err := cmd.Result()
		if errors.Is(err, redisv9.Nil) || sandboxID == "" {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("registry: HGET %s sandbox_id: %w", workloadKey(ids[i]), err)
		}
		assigned[sandboxID] = ids[i]
	}
	return assigned, nil
}
