package util

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Development gets readable
// text at debug level; every other environment emits JSON for the log
// aggregator. The service attribute lets the server and worker share
// one stream without losing attribution.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "causeconnect")
}
