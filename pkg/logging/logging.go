// Package logging configures structured logging for log/slog.
//
// Usage:
//
//	logging.Configure(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
//
// Levels: debug, info, warn, error (default: info).
// Formats: text (colored with tint, default) or json.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Configure installs a default logger writing to w. format "json" selects the
// JSON handler; anything else selects colored text.
func Configure(w io.Writer, level, format string) *slog.Logger {
	logger := slog.New(newHandler(w, ParseLevel(level), format))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	})
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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
