// Package slog adapts a log/slog handler to the client's logging contract.
package slog

import (
	"context"
	"log/slog"
)

type Logger struct {
	logger *slog.Logger
}

func New(h slog.Handler) *Logger {
	return &Logger{logger: slog.New(h)}
}

// FromLogger wraps an existing slog.Logger, keeping its attributes and groups.
func FromLogger(l *slog.Logger) *Logger {
	return &Logger{logger: l}
}

func (l *Logger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args)
}
