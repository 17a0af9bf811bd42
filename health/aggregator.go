package health

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds each individual check. A checker that exceeds it
	// reads as unhealthy with ErrCheckTimeout.
	// Default: 10 seconds
	Timeout time.Duration
}

// Aggregator combines multiple health checkers into one composite view.
// Checks always run in parallel; one slow dependency must not delay the
// readiness of the rest.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string // registration order
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{Timeout: 10 * time.Second}
	if len(config) > 0 && config[0].Timeout > 0 {
		cfg.Timeout = config[0].Timeout
	}
	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds a health checker under the given name. Registering an
// existing name replaces the checker and keeps its original position.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes a health checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	if i := slices.Index(a.order, name); i >= 0 {
		a.order = slices.Delete(a.order, i, i+1)
	}
}

// CheckerNames returns the registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}
	return a.runCheck(ctx, checker), nil
}

// CheckAll runs every registered check in parallel and returns the
// results keyed by registered name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := maps.Clone(a.checkers)
	a.mu.RUnlock()

	results := make(map[string]Result, len(checkers))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, checker := range checkers {
		wg.Go(func() {
			result := a.runCheck(ctx, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		})
	}
	wg.Wait()
	return results
}

// OverallStatus folds a result set into one status: any unhealthy check
// wins, then any degraded one. An empty set reads as healthy.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	overall := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// Report is a point-in-time composite of every registered check.
type Report struct {
	// Status is the overall status across all checks.
	Status Status

	// Checks holds the individual results keyed by registered name.
	Checks map[string]Result

	// Timestamp is when the report was assembled.
	Timestamp time.Time
}

// Report runs all checks and folds them into a single Report.
func (a *Aggregator) Report(ctx context.Context) Report {
	results := a.CheckAll(ctx)
	return Report{
		Status:    a.OverallStatus(results),
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck applies the per-check timeout. The checker runs in its own
// goroutine so a checker that ignores its context cannot hang the caller;
// it is left to finish in the background.
func (a *Aggregator) runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	resultCh := make(chan Result, 1)
	go func() {
		result := checker.Check(ctx)
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		timedOut := newResult(StatusUnhealthy, "check timed out", ErrCheckTimeout)
		timedOut.Duration = time.Since(start)
		timedOut.Timestamp = start
		return timedOut
	}
}

// Checker adapts the aggregator itself into a single Checker, so one
// composite can nest inside another.
func (a *Aggregator) Checker() Checker {
	return &aggregatorChecker{agg: a}
}

type aggregatorChecker struct {
	agg *Aggregator
}

func (c *aggregatorChecker) Name() string {
	return "aggregate"
}

func (c *aggregatorChecker) Check(ctx context.Context) Result {
	report := c.agg.Report(ctx)

	details := make(map[string]any, len(report.Checks))
	for name, result := range report.Checks {
		details[name] = map[string]any{
			"status":   result.Status.String(),
			"message":  result.Message,
			"duration": result.Duration.String(),
		}
	}

	var message string
	switch report.Status {
	case StatusHealthy:
		message = "all checks passed"
	case StatusDegraded:
		message = "some checks degraded"
	case StatusUnhealthy:
		message = "some checks failed"
	}

	return Result{
		Status:    report.Status,
		Message:   message,
		Details:   details,
		Timestamp: report.Timestamp,
	}
}
