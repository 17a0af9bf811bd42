package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of concurrent operations.
	// Default: 10
	MaxConcurrent int

	// MaxWait is the maximum time to wait for a slot.
	// Default: 0 (no waiting, fail immediately)
	MaxWait time.Duration
}

// Bulkhead caps the number of in-flight operations so one slow
// dependency cannot exhaust the caller's goroutines or connections.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}

	active   atomic.Int64
	peak     atomic.Int64
	rejected atomic.Int64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire claims a slot. Without MaxWait it returns ErrBulkheadFull as
// soon as no slot is free; with MaxWait it queues for up to that long.
// A context already cancelled never claims a slot.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case b.sem <- struct{}{}:
		b.noteAcquired()
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		return b.reject()
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		b.noteAcquired()
		return nil
	case <-timer.C:
		return b.reject()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. A release without a matching acquire is
// dropped so spare calls cannot mint capacity.
//
// The counter is decremented before the slot frees, so a successor's
// increment can never overlap its predecessor's and push the counted
// active past MaxConcurrent.
func (b *Bulkhead) Release() {
	for {
		n := b.active.Load()
		if n <= 0 {
			return
		}
		if b.active.CompareAndSwap(n, n-1) {
			<-b.sem
			return
		}
	}
}

// Execute runs the operation within the bulkhead.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()

	return op(ctx)
}

func (b *Bulkhead) noteAcquired() {
	n := b.active.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (b *Bulkhead) reject() error {
	b.rejected.Add(1)
	return ErrBulkheadFull
}

// Metrics returns current bulkhead metrics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	active := int(b.active.Load())
	return BulkheadMetrics{
		Active:        active,
		PeakActive:    int(b.peak.Load()),
		Available:     b.config.MaxConcurrent - active,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.rejected.Load(),
	}
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int
	PeakActive    int
	Available     int
	MaxConcurrent int
	Rejected      int64
}
