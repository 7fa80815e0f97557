package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output keeps log
// aggregation simple; level is debug when CIVICFIX_DEBUG is set.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("CIVICFIX_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
