// Package resource translates human-readable resource specs ("4g", "2")
// into runtime-native units. Parsing never fails: unparsable or
// non-positive input falls back to a documented default, so a
// misconfigured limit degrades to the default instead of blocking
// allocation. Callers that care get the ok flag and can log.
package resource

import (
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

const (
	// DefaultMemoryBytes is substituted for unparsable memory specs (4 GiB).
	DefaultMemoryBytes int64 = 4 * 1024 * 1024 * 1024

	// DefaultCPUs is substituted for unparsable CPU specs.
	DefaultCPUs float64 = 1.0
)

// MemoryBytes parses a memory spec like "4g", "512m", "1024k" or a plain
// byte count into bytes. Units are binary (1024-based). Returns
// (DefaultMemoryBytes, false) when the spec cannot be parsed or is not
// positive.
func MemoryBytes(spec string) (int64, bool) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return DefaultMemoryBytes, false
	}
	n, err := units.RAMInBytes(s)
	if err != nil || n <= 0 {
		return DefaultMemoryBytes, false
	}
	return n, true
}

// NanoCPUs parses a decimal CPU count ("2", "0.5") into Docker NanoCPU
// units (cores × 1e9). Returns (DefaultCPUs×1e9, false) when the spec
// cannot be parsed or is not positive.
func NanoCPUs(spec string) (int64, bool) {
	s := strings.TrimSpace(spec)
	cores, err := strconv.ParseFloat(s, 64)
	if err != nil || cores <= 0 {
		return int64(DefaultCPUs * 1e9), false
	}
	return int64(cores * 1e9), true
}
