// Package logging configures the editor's structured logger.
//
// Logs go to a size-rotated file under the .ofd state directory so that
// interactive terminal output stays clean; commands print results to
// stdout/stderr themselves.
package logging

import (
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup returns a logger writing to a rotating file at path with the given
// level (debug, info, warn, error; anything else means info).
func Setup(path, level string) *slog.Logger {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
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
