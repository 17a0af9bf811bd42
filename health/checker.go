package health

import (
	"context"
	"time"
)

// Status represents the health of one component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component works but with reduced
	// capacity, such as a breaker probing recovery.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning.
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a single health check.
type Result struct {
	// Status is the health status.
	Status Status

	// Message provides additional context about the status.
	Message string

	// Details contains arbitrary metadata about the check, such as
	// breaker failure counts or cache hit rates.
	Details map[string]any

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check ran.
	Timestamp time.Time

	// Error is the probe error for unhealthy results.
	Error error
}

func newResult(status Status, message string, err error) Result {
	return Result{
		Status:    status,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// Healthy builds a passing result.
func Healthy(message string) Result { return newResult(StatusHealthy, message, nil) }

// Degraded builds a result for a component running with reduced capacity.
func Degraded(message string) Result { return newResult(StatusDegraded, message, nil) }

// Unhealthy builds a failing result carrying the probe error.
func Unhealthy(message string, err error) Result { return newResult(StatusUnhealthy, message, err) }

// WithDetails returns a copy of the result with metadata attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration returns a copy of the result with the probe duration set.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker reports the health of one component.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Check should honor cancellation/deadlines.
// - Errors: a failing check returns an unhealthy Result; Check never panics.
type Checker interface {
	// Name identifies the checker within an aggregator.
	Name() string

	// Check probes the component and reports the outcome.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts an ordinary function into a Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc wraps fn as a named Checker.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

var _ Checker = (*CheckerFunc)(nil)
