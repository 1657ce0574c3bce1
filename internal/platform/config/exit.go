package config

import (
	"log/slog"
	"os"
)

// Fatal logs msg at error level and exits with status 1. A nil logger writes
// JSON to stderr, for failures before the service logger exists.
func Fatal(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		logger = NewLogger(os.Stderr, "error")
	}
	logger.Error(msg, args...)
	os.Exit(1)
}
