// Package logging builds the application's slog loggers. Development and
// test environments get a colorized console handler; production writes
// JSON through a size/age-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"civitrack/internal/config"
)

// NewLogger creates a logger configured for the current environment.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(rotatingWriter(cfg), &slog.HandlerOptions{
			Level: level,
		}))
	}

	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

func rotatingWriter(cfg *config.Config) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogsDirectory, cfg.AppName+".log"),
		MaxSize:    cfg.LogsMaxSizeInMb,
		MaxBackups: cfg.LogsMaxBackups,
		MaxAge:     cfg.LogsMaxAgeInDays,
		Compress:   true,
	}
}

func parseLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelInfo:
		return slog.LevelInfo
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
