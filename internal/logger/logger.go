// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON slog.Logger. When a log file is configured the output
// goes through lumberjack so the file is rotated by size and age.
func New(cfg config.Log, mode config.Mode) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.FilePath != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}
	return NewWithWriter(out, cfg.Level, mode)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string, mode config.Mode) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: mode == config.ModeRelease,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
	return slog.New(handler).With("app", "agiletrack")
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
