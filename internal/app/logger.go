package app

import (
	"io"
	"log/slog"
	"strings"
)

const serviceName = "stepgrid"

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the run logger. It never touches slog's default logger, so
// apps built in parallel tests keep their output apart. An unknown level
// falls back to info and is reported once on the new logger.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, known := logLevels[strings.ToLower(levelStr)]
	if !known {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	logger := slog.New(handler).With("service", serviceName)
	if !known && levelStr != "" {
		logger.Warn("Unknown log level, using info.", "level", levelStr)
	}
	return logger
}
