// Package observability holds the logging, tracing and metrics plumbing
// shared by both commands.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"

	"retail-eda/internal/config"
)

// NewLogger builds the service logger on stdout.
func NewLogger(cfg config.LoggerConfig) *slog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

// NewLoggerTo builds a logger writing to w. The report command logs to
// stderr so its console output stays readable.
func NewLoggerTo(w io.Writer, cfg config.LoggerConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: true}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "retail-eda")
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the id set by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}
