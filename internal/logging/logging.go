// Package logging configures the process-wide slog logger. Components derive
// their own loggers from it with logger.With("component", ...).
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the root logger from the ROOKERY_LOG_LEVEL value, installs it
// as the slog default, and returns it. Unrecognized or empty values mean
// info. Debug level additionally records source positions, since debug runs
// are where they get read.
func Setup(level string) *slog.Logger {
	lvl := parseLevel(level)

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
