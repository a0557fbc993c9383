package app

import (
	"io"
	"log/slog"
)

// newLogger builds the app's logger from the resolved configuration. The
// level and format strings were already validated by cliconfig, so anything
// unexpected falls back to info/text. The logger is never installed
// globally; it travels through context via ctxlog.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
