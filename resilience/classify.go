package resilience

import (
	"context"
	"errors"
)

// Verdict is the action a failure classification selects.
type Verdict int

const (
	// VerdictHalt surfaces the error immediately without another attempt.
	VerdictHalt Verdict = iota
	// VerdictRetry schedules another attempt within the retry budget.
	VerdictRetry
	// VerdictTrip retries like VerdictRetry and additionally marks the
	// failure as dependency-health signal for the circuit breaker.
	VerdictTrip
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictHalt:
		return "halt"
	case VerdictRetry:
		return "retry"
	case VerdictTrip:
		return "trip"
	default:
		return "unknown"
	}
}

// Classify maps a failure to the action the pipeline takes on it.
//
// Transient failures retry: RetryableError, RateLimitError, NetworkError,
// per-attempt timeouts (ErrTimeout, context.DeadlineExceeded).
// UnavailableError retries and trips. Cancellation, ErrCircuitOpen, and
// anything unclassified halt. A nil error halts.
func Classify(err error) Verdict {
	if err == nil {
		return VerdictHalt
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return VerdictHalt
	}

	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return VerdictTrip
	}

	var (
		retryable *RetryableError
		rateLimit *RateLimitError
		network   *NetworkError
	)
	switch {
	case errors.As(err, &retryable),
		errors.As(err, &rateLimit),
		errors.As(err, &network),
		errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return VerdictRetry
	}

	return VerdictHalt
}

// DefaultRetryable is the retry projection of Classify: timeouts,
// connection errors, rate-limit responses, and unavailable dependencies
// retry; everything else does not.
func DefaultRetryable(err error) bool {
	return Classify(err) != VerdictHalt
}

// DefaultIsFailure decides what counts toward the circuit breaker
// threshold: any failure except caller cancellation and the breaker's own
// fail-fast signal.
func DefaultIsFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrCircuitOpen)
}
