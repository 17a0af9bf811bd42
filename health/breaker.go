package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/bastion/resilience"
)

// BreakerChecker reports the state of a circuit breaker guarding one
// dependency: closed reads as healthy, half-open as degraded while the
// trial call is outstanding, and open as unhealthy.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for the breaker guarding the named
// dependency.
func NewBreakerChecker(name string, breaker *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name returns the dependency name.
func (c *BreakerChecker) Name() string {
	return c.name
}

// Check reads the breaker state. It never invokes the guarded dependency;
// the breaker's own traffic is the probe.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	m := c.breaker.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
	}
	if !m.LastFailure.IsZero() {
		details["last_failure"] = m.LastFailure.UTC().Format(time.RFC3339)
	}

	switch m.State {
	case resilience.StateOpen:
		return Unhealthy(
			fmt.Sprintf("circuit open after %d consecutive failures", m.Failures),
			resilience.ErrCircuitOpen,
		).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit half-open, trial call pending").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}

var _ Checker = (*BreakerChecker)(nil)
