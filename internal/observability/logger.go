// Package observability carries the service's structured logging, request
// tracing and Prometheus metrics.
package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/JonMunkholm/nlquery/internal/config"
)

type traceIDKey struct{}

// NewLogger builds the service logger from cfg.Observability: JSON or text
// output at the configured level, with source locations at debug level.
// Every line carries the service name. A nil writer discards output.
func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Observability.LogLevel,
		AddSource: cfg.Observability.LogLevel <= slog.LevelDebug,
	}

	var handler slog.Handler = slog.NewTextHandler(writer, opts)
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	}
	return slog.New(handler).With(slog.String("service", cfg.Service.Name))
}

// ContextWithTraceID returns a copy of ctx carrying traceID.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID stored by TraceMiddleware, or "".
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey{}).(string)
	return traceID
}
