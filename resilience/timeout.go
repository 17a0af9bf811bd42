package resilience

import (
	"context"
	"time"
)

// TimeoutConfig configures the per-attempt timeout.
type TimeoutConfig struct {
	// Timeout is the longest a single attempt may run.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds how long a single operation may run. Inside an
// Executor it is the innermost wrapper, so every retry attempt gets a
// fresh budget.
type Timeout struct {
	limit time.Duration
}

// NewTimeout creates a timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	limit := config.Timeout
	if limit <= 0 {
		limit = 30 * time.Second
	}
	return &Timeout{limit: limit}
}

// Execute runs op under the configured budget.
//
// When the budget elapses, Execute returns ErrTimeout and cancels the
// derived context; op is expected to observe the cancellation and
// return, its goroutine is not forcibly terminated. Cancellation of the
// parent context surfaces as the parent's own error, never as
// ErrTimeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeoutCause(ctx, t.limit, ErrTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Config reports the configured attempt budget.
func (t *Timeout) Config() TimeoutConfig {
	return TimeoutConfig{Timeout: t.limit}
}

// ExecuteWithTimeout runs op under a one-off budget without building an
// Executor.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
