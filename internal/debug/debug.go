// Package debug carries the debug switch through contexts and configures slog.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type debugKey struct{}

// WithDebug returns a context with debug logging switched on or off.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey{}, enabled)
}

// IsEnabled reports whether debug logging was requested for ctx.
func IsEnabled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(debugKey{}).(bool); ok {
		return v
	}
	return false
}

// SetupLogger installs the default slog logger writing to stderr.
func SetupLogger(debugEnabled bool) {
	SetupLoggerTo(os.Stderr, debugEnabled)
}

// SetupLoggerTo installs the default slog logger writing to w.
func SetupLoggerTo(w io.Writer, debugEnabled bool) {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Redact masks a secret, keeping the last four characters for recognition.
func Redact(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
