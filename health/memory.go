package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the process memory checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the allocation ratio that reads as degraded.
	// Value between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the allocation ratio that reads as unhealthy.
	// Value between 0 and 1. Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the allocation budget in bytes the ratios are computed
	// against. Zero measures against the memory obtained from the OS.
	MaxAlloc uint64
}

// MemoryChecker reports process memory pressure. In-memory caches are
// the dominant allocation in this toolkit, so sustained pressure usually
// means cache sizes need tuning.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a process memory checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &MemoryChecker{config: config}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check reads the runtime memory stats and grades them against the
// configured thresholds.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}
	if maxAlloc == 0 {
		return Healthy("memory stats unavailable")
	}

	usageRatio := float64(stats.Alloc) / float64(maxAlloc)
	details := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"sys_bytes":     stats.Sys,
		"max_alloc":     maxAlloc,
		"usage_percent": usageRatio * 100,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case usageRatio >= m.config.CriticalThreshold:
		return Unhealthy(
			fmt.Sprintf("memory usage critical: %.1f%%", usageRatio*100),
			ErrCheckFailed,
		).WithDetails(details)
	case usageRatio >= m.config.WarningThreshold:
		return Degraded(
			fmt.Sprintf("memory usage high: %.1f%%", usageRatio*100),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("memory usage normal: %.1f%%", usageRatio*100),
		).WithDetails(details)
	}
}

var _ Checker = (*MemoryChecker)(nil)
