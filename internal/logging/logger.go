// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware to propagate
// request IDs through structured log entries, and carries the ingestion id
// of a background pass so every entry of that pass can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const ctxKeyIngestID contextKey = "ingest_id"

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// The server logs to stdout; the CLI passes stderr so command output stays
// pipeable.
func Setup(w io.Writer, level, format string) {
	slog.SetDefault(New(w, level, format))
}

// New builds a logger without installing it as the default.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextWithIngestID tags ctx with the id of the ingestion pass it serves.
func ContextWithIngestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyIngestID, id)
}

// IngestIDFromContext returns the ingestion id set by ContextWithIngestID.
func IngestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIngestID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger enriched with request context.
//
// A chi RequestID becomes request_id and an ingestion id becomes ingest_id
// on every entry.
//
// Usage:
//
//	func handleRequest(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("exporting", "filter", f)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if id := IngestIDFromContext(ctx); id != "" {
		logger = logger.With("ingest_id", id)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
//	log := logging.WithFields(ctx, "file", fileName)
//	log.Info("ingestion started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
