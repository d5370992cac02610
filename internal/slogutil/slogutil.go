package slogutil

import (
	"io"
	"log/slog"
	"strings"
)

// ComponentKey is the attribute key naming the pipeline stage that logged a record.
const ComponentKey = "component"

// Silent is a level above every standard level; loggers at this level emit nothing.
const Silent = slog.Level(100)

// Format selects the record encoding.
type Format string

const (
	// FormatHuman writes TextHandler lines
	FormatHuman Format = "human"
	// FormatJSON writes one JSON object per record
	FormatJSON Format = "json"
)

// NewLogger creates a new slog.Logger in the human format.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewFormattedLogger creates a logger in the requested format. Unknown formats fall back to human.
func NewFormattedLogger(w io.Writer, level slog.Level, format Format) *slog.Logger {
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return NewLogger(w, level)
}

// NewDiscardLogger creates a logger that discards all output.
// Useful for tests or when logging should be completely suppressed.
func NewDiscardLogger() *slog.Logger {
	return slog.New(NewTextHandler(io.Discard, &slog.HandlerOptions{Level: Silent}))
}

// ForComponent returns a child logger tagged with a component name.
// A nil logger yields a discard logger so components can be built without one.
func ForComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewDiscardLogger()
	}
	return logger.With(ComponentKey, component)
}

// LevelFromString converts a string to a slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromVerbosity converts CLI verbosity flags to a slog.Level.
// - quiet=true: returns a level that suppresses all logs
// - verbosity=0: warn (default for CLI)
// - verbosity=1: info
// - verbosity>=2: debug
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	if quiet {
		return Silent
	}
	switch verbosity {
	case 0:
		return slog.LevelWarn
	case 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
