// Package debug carries the debug switch through a context and configures
// the process-wide slog logger.
package debug

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// redactedKeys are attribute keys whose values never reach the log.
var redactedKeys = map[string]bool{
	"authorization": true,
	"secret":        true,
	"password":      true,
	"token":         true,
	"signature":     true,
}

// WithDebug returns a context with debug logging switched on or off.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled reports whether debug logging is on for ctx.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return false
}

// SetupLogger installs a text handler writing to w as the default logger.
// With debug off only warnings and errors are emitted. Credential-bearing
// attributes are masked either way.
func SetupLogger(w io.Writer, debugEnabled bool) *slog.Logger {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}))
	slog.SetDefault(logger)
	return logger
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
