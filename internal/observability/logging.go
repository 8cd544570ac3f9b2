// Package observability provides structured logging with OpenTelemetry
// trace correlation for the guardrail runtime.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds a slog.Logger from the configured level and format.
// Unknown values fall back to info/text.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTrace returns a logger annotated with the trace and span IDs of the
// current OpenTelemetry span, when one is active in ctx. Logs emitted
// through the returned logger can be joined against exported traces.
func WithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	spanCtx := span.SpanContext()
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

// sensitive field names, normalized to lowercase without underscores
var sensitiveFields = map[string]bool{
	"apikey":     true,
	"secret":     true,
	"secretkey":  true,
	"password":   true,
	"token":      true,
	"transcript": true,
}

// RedactArgs replaces values of sensitive keys in structured log args with
// a marker. Args with an odd length are returned unchanged.
func RedactArgs(args []any) []any {
	if len(args)%2 != 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			normalized := strings.ToLower(strings.ReplaceAll(key, "_", ""))
			if sensitiveFields[normalized] {
				redacted[i+1] = "[REDACTED]"
			}
		}
	}
	return redacted
}
