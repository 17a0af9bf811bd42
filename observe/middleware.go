package observe

import (
	"context"
	"time"
)

// CallFunc is the signature for instrumented dependency calls. The call
// closes over its own arguments; meta names it for telemetry.
type CallFunc func(ctx context.Context, meta CallMeta) (any, error)

// Middleware wraps dependency calls with observability (tracing, metrics,
// logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe CallFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
//   - Ownership: Result values are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware assembles a middleware from the three signal sinks.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap instruments fn: one span, one call metric, one log line per
// invocation.
func (m *Middleware) Wrap(fn CallFunc) CallFunc {
	return func(ctx context.Context, meta CallMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta)
		duration := time.Since(start)

		// EndSpan records error status when err != nil.
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, meta, duration, err)

		callLogger := m.logger.WithCall(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			callLogger.Error(ctx, "dependency call failed", fields...)
		} else {
			callLogger.Info(ctx, "dependency call completed", fields...)
		}

		return result, err
	}
}

// Do runs fn under the middleware with a fixed meta, for call sites that
// only need an error result (resilience executors, health probes).
func (m *Middleware) Do(ctx context.Context, meta CallMeta, fn func(ctx context.Context) error) error {
	wrapped := m.Wrap(func(ctx context.Context, _ CallMeta) (any, error) {
		return nil, fn(ctx)
	})
	_, err := wrapped(ctx, meta)
	return err
}

// MiddlewareFromObserver builds a middleware from an observer's tracer,
// meter, and logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
