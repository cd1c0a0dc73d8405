package logger

import (
	"log/slog"
	"os"
)

var Log = slog.Default()

// Init installs a JSON logger on stdout, debug level unless production.
func Init(production bool) *slog.Logger {
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	Log = slog.New(handler)
	slog.SetDefault(Log)
	return Log
}
