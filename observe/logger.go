package observe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
)

// ParseLevel maps a configured level string onto a slog level. Unknown
// strings fall back to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogLogger adapts a slog.Logger to the Logger interface, adding field
// redaction and per-call scoping.
type slogLogger struct {
	base *slog.Logger
}

// NewLogger creates a structured logger writing to stderr.
func NewLogger(cfg LoggingConfig) Logger {
	return NewLoggerWithWriter(cfg.Level, cfg.Format, os.Stderr)
}

// NewLoggerWithWriter creates a structured logger with a custom writer.
// Format "text" selects the text handler; anything else gets JSON.
func NewLoggerWithWriter(level, format string, w io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return &slogLogger{base: slog.New(handler)}
}

// WithCall returns a logger with dependency call context attached.
func (l *slogLogger) WithCall(meta CallMeta) Logger {
	args := []any{
		slog.String("call.id", meta.CallID()),
		slog.String("call.dependency", meta.Dependency),
	}
	if meta.Operation != "" {
		args = append(args, slog.String("call.operation", meta.Operation))
	}

	return &slogLogger{base: l.base.With(args...)}
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

func (l *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *slogLogger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if !l.base.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		if isRedactedField(f.Key) {
			attrs = append(attrs, slog.String(f.Key, "[REDACTED]"))
		} else {
			attrs = append(attrs, slog.Any(f.Key, f.Value))
		}
	}

	l.base.LogAttrs(ctx, level, msg, attrs...)
}

// isRedactedField reports whether the field's value must be masked.
// RedactedFields is the single list both this check and callers see.
func isRedactedField(key string) bool {
	return slices.Contains(RedactedFields, key)
}

var _ Logger = (*slogLogger)(nil)
