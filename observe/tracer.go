package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies a guarded dependency call for telemetry purposes.
type CallMeta struct {
	Dependency string // upstream dependency name, e.g. "card_api" (required)
	Operation  string // operation within the dependency, e.g. "get_card" (optional)
}

// SpanName returns the deterministic span name for this call.
// Format: dep.call.<dependency>.<operation> or dep.call.<dependency>
func (m CallMeta) SpanName() string {
	if m.Operation != "" {
		return "dep.call." + m.Dependency + "." + m.Operation
	}
	return "dep.call." + m.Dependency
}

// CallID returns the fully qualified call identifier.
func (m CallMeta) CallID() string {
	if m.Operation != "" {
		return m.Dependency + "." + m.Operation
	}
	return m.Dependency
}

// Validate checks that the metadata names a dependency.
func (m CallMeta) Validate() error {
	if m.Dependency == "" {
		return ErrMissingDependency
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with dependency-call span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a dependency call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer wraps an OpenTelemetry tracer in the Tracer interface.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with call metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("call.id", meta.CallID()),
		attribute.String("call.dependency", meta.Dependency),
		// call.error flips to true in EndSpan on failure.
		attribute.Bool("call.error", false),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("call.operation", meta.Operation))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("call.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer produces non-recording spans.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
