// Package testutil provides shared test fixtures and HTTP helpers.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/p-arndt/sandpool/internal/config"
	"github.com/p-arndt/sandpool/internal/journal"
)

// TestConfig returns a Config with sensible test defaults.
func TestConfig() *config.Config {
	return &config.Config{
		Listen:                   "127.0.0.1:0",
		APIKey:                   "test-api-key",
		RedisAddr:                "127.0.0.1:6379",
		BaseImage:                "sandpool-base:test",
		FallbackImage:            "debian:bookworm-slim",
		NetworkMode:              "none",
		Capacity:                 4,
		WarmPoolSize:             1,
		HealthIntervalSeconds:    1,
		ReconcileIntervalSeconds: 1,
		StopTimeoutSeconds:       5,
		JournalPath:              "",
		Resources: config.Resources{
			Memory: "512m",
			CPUs:   "0.5",
		},
	}
}

// NewTestJournal creates a throwaway SQLite journal for testing.
func NewTestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to create test journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}
