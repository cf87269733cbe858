package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID annotates the context with the check-run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID extracts the check-run identifier if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithContext enriches the logger with identifiers carried by the context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := RunID(ctx); ok {
		logger = logger.With(String("run_id", id))
	}
	return logger
}
