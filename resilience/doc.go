// Package resilience provides resilience patterns for calls to upstream
// services.
//
// This package implements the patterns a service needs between itself and
// the third-party APIs it depends on. The patterns can be composed into an
// execution pipeline that paces, guards, and retries an arbitrary
// caller-supplied operation; the package never performs network I/O of its
// own.
//
// # Patterns
//
// The package provides the following resilience patterns:
//
//   - Retry: Repeats failed operations with exponential backoff and
//     optional jitter, consulting a failure classifier so permanent
//     errors surface immediately.
//
//   - Circuit Breaker: Tracks consecutive failures per dependency and
//     fails fast with ErrCircuitOpen while the dependency is unhealthy,
//     allowing a single trial call after a reset timeout.
//
//   - Rate Limiter: A token bucket that suspends callers until a token
//     is available, pacing admission to externally rate-limited APIs.
//
//   - Bulkhead: Limits concurrent operations to prevent resource
//     exhaustion.
//
//   - Timeout: Bounds each individual attempt.
//
// # Failure classification
//
// Errors drive the pipeline. Wrap failures in RetryableError,
// RateLimitError, NetworkError, or UnavailableError (or match the
// taxonomy in a custom RetryIf) and the retry layer absorbs them up to
// its budget; anything else surfaces after a single attempt. Classify
// exposes the full decision. A caller can distinguish an exhausted retry
// budget (errors.Is(err, ErrMaxRetriesExceeded)), an open circuit
// (errors.Is(err, ErrCircuitOpen)), and a non-retryable failure, and pick
// a different fallback for each.
//
// # Usage
//
// Each pattern can be used independently or composed together:
//
//	// Create a circuit breaker
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: time.Minute,
//	})
//
//	// Create a retry policy
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: time.Second,
//	    MaxDelay:     time.Minute,
//	    Multiplier:   2.0,
//	    Jitter:       true,
//	})
//
//	// Create a rate limiter
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    Rate:  10, // tokens per second
//	    Burst: 5,
//	})
//
//	// Compose patterns
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callUpstreamService(ctx)
//	})
//
// All long-lived state (breakers, limiters) is per-process; nothing here
// coordinates across processes.
package resilience
