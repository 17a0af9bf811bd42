// Package health reports the condition of guarded dependencies and caches.
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy. Checkers
// exist for the states this toolkit already tracks: BreakerChecker reads a
// circuit breaker without touching the dependency behind it, StoreChecker
// round-trips a probe entry through a cache store, and MemoryChecker watches
// heap pressure from the in-memory caches.
//
// # Aggregating Health Checks
//
// Use Aggregator to combine checks into a single composite report:
//
//	agg := health.NewAggregator(health.AggregatorConfig{Timeout: 2 * time.Second})
//	agg.Register("card_api", health.NewBreakerChecker("card_api", breaker))
//	agg.Register("cache:api", health.NewStoreChecker("api", store))
//	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))
//
//	report := agg.Report(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    log.Printf("unhealthy: %v", report.Checks)
//	}
//
// Checks run in parallel, each bounded by the configured per-check timeout.
// An open breaker or a failing store reads as unhealthy; a half-open breaker
// reads as degraded, since a trial call may close it again.
//
// # HTTP Endpoints
//
// The package provides handlers for the usual probe shapes:
//
//	// Liveness probe (for Kubernetes)
//	http.Handle("/healthz", health.LivenessHandler())
//
//	// Readiness probe over the aggregator; degraded still reads as ready
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//
//	// Full JSON report with per-check details
//	http.Handle("/health", health.DetailedHandler(aggregator))
package health
