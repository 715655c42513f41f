// Package logging builds the structured slog loggers used by the server.
//
// Logs are JSON on stderr. Every record carries the module name and version;
// debug level adds source locations. LOG_LEVEL (debug, info, warn, error)
// selects the level when no explicit level is given.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New returns a JSON logger writing to stderr.
func New(module, version, level string) *slog.Logger {
	return NewWithWriter(os.Stderr, module, version, level)
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, module, version, level string) *slog.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl := ParseLevel(level)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	})
	return slog.New(handler).With("module", module, "version", version)
}

// SetDefault installs a logger built by New as the slog default and returns it.
func SetDefault(module, version, level string) *slog.Logger {
	logger := New(module, version, level)
	slog.SetDefault(logger)
	return logger
}
