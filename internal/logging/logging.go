package logging

import (
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// New creates a console slog.Logger with the provided level string.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

// NewWithFile fans log records out to the console (text) and a log file
// (JSON). Returns the logger and a cleanup closing the file. A file open
// failure degrades to console-only rather than aborting the run.
func NewWithFile(level, path string) (*slog.Logger, func() error) {
	lvl := levelFromString(level)
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})

	if path == "" {
		return slog.New(console), func() error { return nil }
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("cannot open log file, console only", "path", path, "error", err)
		return logger, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(slogmulti.Fanout(console, fileHandler))
	return logger, file.Close
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
