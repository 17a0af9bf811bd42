package resilience

import (
	"context"
	"time"
)

// Executor composes multiple resilience patterns around one downstream
// dependency. Caching composes outside the executor; on a cache hit
// nothing here runs.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds a prebuilt timeout wrapper to the executor.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// layer is the shape every resilience wrapper shares.
type layer interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Execute runs the operation through all configured resilience patterns.
//
// The execution order is:
// 1. Rate Limiter (if configured) - paces admission, waiting for a token
// 2. Bulkhead (if configured) - limits concurrency
// 3. Circuit Breaker (if configured) - fails fast on unhealthy dependencies
// 4. Retry (if configured) - absorbs transient failures
// 5. Timeout (if configured) - bounds each individual attempt
//
// ErrCircuitOpen surfaces directly to the caller: it originates above the
// retry layer and is never retried.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op
	wrap := func(l layer) {
		inner := run
		run = func(ctx context.Context) error {
			return l.Execute(ctx, inner)
		}
	}

	// Assembled inside out, so each retry attempt gets a fresh budget
	// and tokens and slots are claimed once per guarded call.
	if e.timeout != nil {
		wrap(e.timeout)
	}
	if e.retry != nil {
		wrap(e.retry)
	}
	if e.circuitBreaker != nil {
		wrap(e.circuitBreaker)
	}
	if e.bulkhead != nil {
		wrap(e.bulkhead)
	}
	if e.rateLimiter != nil {
		wrap(e.rateLimiter)
	}

	return run(ctx)
}

// Breaker returns the configured circuit breaker, or nil.
func (e *Executor) Breaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Limiter returns the configured rate limiter, or nil.
func (e *Executor) Limiter() *RateLimiter {
	return e.rateLimiter
}

// ExecuteValue runs op through the executor and returns its value.
func ExecuteValue[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
