package chh

import (
	"fmt"
	"log/slog"
)

// ConfigError reports a memory budget too small for a sketch to derive a
// usable capacity for one of its internal tables (zero, or for DualSketch's
// QuadTable, smaller than one cluster).
type ConfigError struct {
	Sketch    string
	Field     string
	MemoryKB  float64
	Requested int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chh: %s: memory_kb=%.4f too small to derive a usable %s", e.Sketch, e.MemoryKB, e.Field)
}

// logIndexRepair reports a soft invariant violation: an index map pointed
// at a slot that no longer holds the expected key. The caller has already
// fallen back to a linear re-scan and repaired the index; this is purely a
// diagnostic, processing continues regardless.
func logIndexRepair(sketch, index string, key uint64) {
	slog.Warn("chh: index map mismatch, repaired via linear scan",
		"sketch", sketch,
		"index", index,
		"key", key,
	)
}
