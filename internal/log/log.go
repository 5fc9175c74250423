// Package log configures the process-wide slog logger and provides
// per-component child loggers so every record carries a component field.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Standard component names used across the application.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentBoard     = "board"
	ComponentNotify    = "notify"
	ComponentAuth      = "auth"
	ComponentRefresher = "refresher"
)

// ParseLevel maps a LOG_LEVEL string to a slog level. Unknown values
// fall back to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Setup installs a text handler on stdout as the default slog logger
// and returns a logger scoped to the given component.
func Setup(level slog.Level, component string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return WithComponent(logger, component)
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
