// Package logger defines the logging contract used across the client and a
// few adapters for the common Go logging libraries.
package logger

import (
	rawslog "log/slog"

	"github.com/escrud/escrud.go/pkg/logger/slog"
)

// Logger takes a message followed by alternating keys and values.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// New wraps a log/slog handler.
func New(h rawslog.Handler) Logger {
	return slog.New(h)
}

// FromSlog wraps a configured slog.Logger.
func FromSlog(l *rawslog.Logger) Logger {
	return slog.FromLogger(l)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Error(string, ...any) {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Info(string, ...any)  {}
func (Nop) Debug(string, ...any) {}
