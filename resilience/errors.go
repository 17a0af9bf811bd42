package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// RetryableError marks a failure as transient and safe to retry.
// Wrap errors whose kind the default classifier cannot infer.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return "resilience: retryable: " + e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so the default classifier treats it as transient.
// Returns nil if err is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// RateLimitError reports backpressure signaled by the remote service,
// such as an HTTP 429. RetryAfter, when positive, is the server-supplied
// wait and overrides the computed backoff for the next attempt.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("resilience: rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return "resilience: rate limited: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Is reports rate-limit identity so errors.Is(err, ErrRateLimitExceeded)
// matches remote backpressure as well as local bucket exhaustion.
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimitExceeded }

// NetworkError reports a connection-level failure: resets, refused
// connections, DNS errors. Always transient from the caller's view.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "resilience: network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// UnavailableError reports that a dependency is unhealthy. It is retried
// like any transient failure and also counts toward the circuit breaker
// threshold under selective failure policies.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "resilience: service unavailable: " + e.Err.Error() }

func (e *UnavailableError) Unwrap() error { return e.Err }

// ExhaustedError is returned when the retry budget runs out. It carries
// the number of attempts made and wraps the last attempt's error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("resilience: %d attempts exhausted: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is reports exhaustion identity so callers can match with
// errors.Is(err, ErrMaxRetriesExceeded).
func (e *ExhaustedError) Is(target error) bool { return target == ErrMaxRetriesExceeded }
