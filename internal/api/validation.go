package api

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	// workloadIDPattern matches valid workload IDs: letters, numbers,
	// hyphens and underscores. The id ends up in container names, so the
	// charset stays Docker-safe.
	workloadIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
)

// ValidateWorkloadID checks a caller-supplied workload identifier.
func ValidateWorkloadID(id string) error {
	if id == "" {
		return fmt.Errorf("workload_id is required")
	}
	if len(id) > 64 {
		return fmt.Errorf("workload_id must not exceed 64 characters")
	}
	if !workloadIDPattern.MatchString(id) {
		return fmt.Errorf("workload_id must contain only letters, numbers, hyphens, and underscores, and cannot start with a separator")
	}
	return nil
}

// validateExecRequest validates command execution parameters
func validateExecRequest(req execRequest) error {
	if len(req.Cmd) == 0 {
		return fmt.Errorf("cmd is required")
	}
	for _, arg := range req.Cmd {
		if arg == "" {
			return fmt.Errorf("cmd must not contain empty arguments")
		}
	}
	return nil
}

// validateTail accepts "all" or a positive line count.
func validateTail(tail string) error {
	if tail == "all" {
		return nil
	}
	if n, err := strconv.Atoi(tail); err != nil || n < 1 {
		return fmt.Errorf("tail must be a positive integer or \"all\"")
	}
	return nil
}

// parseLimit parses a positive query-string limit with a default and cap.
func parseLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if n > max {
		return max, nil
	}
	return n, nil
}
