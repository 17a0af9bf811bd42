package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records telemetry for dependency calls and the resilience
// machinery guarding them.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a completed dependency call with duration and
	// error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordRetry records one retry attempt against a dependency.
	RecordRetry(ctx context.Context, meta CallMeta, attempt int)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, dependency, from, to string)

	// RecordCacheHit records a hit on the named cache domain.
	RecordCacheHit(ctx context.Context, cache string)

	// RecordCacheMiss records a miss on the named cache domain.
	RecordCacheMiss(ctx context.Context, cache string)
}

// NewMetrics creates a Metrics backed by the given meter. A no-op meter
// yields no-op instruments, so callers can wire this unconditionally.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	callCount    metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	retryCount   metric.Int64Counter
	breakerCount metric.Int64Counter
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	callCount, err := meter.Int64Counter(
		"dep.call.total",
		metric.WithDescription("Total number of dependency calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"dep.call.errors",
		metric.WithDescription("Total number of failed dependency calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"dep.call.duration_ms",
		metric.WithDescription("Dependency call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"dep.retry.total",
		metric.WithDescription("Total number of retry attempts against dependencies"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	breakerCount, err := meter.Int64Counter(
		"dep.breaker.transitions",
		metric.WithDescription("Total number of circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Total number of cache hits by cache domain"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Total number of cache misses by cache domain"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		callCount:    callCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		retryCount:   retryCount,
		breakerCount: breakerCount,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}, nil
}

// callAttrs builds the common attribute set for a dependency call.
func callAttrs(meta CallMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("call.id", meta.CallID()),
		attribute.String("call.dependency", meta.Dependency),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("call.operation", meta.Operation))
	}
	return attrs
}

// RecordCall records metrics for a completed dependency call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(callAttrs(meta)...)

	// Always increment the call counter
	m.callCount.Add(ctx, 1, opt)

	// Increment error counter on failure
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	// Record duration in milliseconds
	durationMs := float64(duration.Milliseconds())
	m.durationHist.Record(ctx, durationMs, opt)
}

// RecordRetry records one retry attempt. The attempt number rides along as
// an attribute; retry budgets are small so cardinality stays bounded.
func (m *metricsImpl) RecordRetry(ctx context.Context, meta CallMeta, attempt int) {
	attrs := append(callAttrs(meta), attribute.Int("retry.attempt", attempt))
	m.retryCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, dependency, from, to string) {
	m.breakerCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("call.dependency", dependency),
		attribute.String("breaker.from", from),
		attribute.String("breaker.to", to),
	))
}

// RecordCacheHit records a hit on the named cache domain.
func (m *metricsImpl) RecordCacheHit(ctx context.Context, cache string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.name", cache),
	))
}

// RecordCacheMiss records a miss on the named cache domain.
func (m *metricsImpl) RecordCacheMiss(ctx context.Context, cache string) {
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.name", cache),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordRetry(ctx context.Context, meta CallMeta, attempt int)          {}
func (m *noopMetrics) RecordBreakerTransition(ctx context.Context, dependency, f, t string) {}
func (m *noopMetrics) RecordCacheHit(ctx context.Context, cache string)                     {}
func (m *noopMetrics) RecordCacheMiss(ctx context.Context, cache string)                    {}

var _ Metrics = (*metricsImpl)(nil)
var _ Metrics = (*noopMetrics)(nil)
