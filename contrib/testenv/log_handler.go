package testenv

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogHandler is a slog.Handler that prints a running message index, the
// level and the message without a timestamp, so log output can be matched in
// example tests.
type LogHandler struct {
	out    io.Writer
	state  *handlerState
	attrs  []slog.Attr
	groups []string

	ignoreDebug    bool
	ignorePrefixes []string
}

// handlerState is shared by handlers derived through WithAttrs and WithGroup.
type handlerState struct {
	mu    sync.Mutex
	index int
}

type LogHandlerOption func(*LogHandler)

// WithOutput writes to w instead of stdout.
func WithOutput(w io.Writer) LogHandlerOption {
	return func(h *LogHandler) {
		h.out = w
	}
}

// WithIgnoreDebug drops DEBUG records.
func WithIgnoreDebug() LogHandlerOption {
	return func(h *LogHandler) {
		h.ignoreDebug = true
	}
}

// WithIgnorePrefixes drops records whose message starts with one of prefixes.
func WithIgnorePrefixes(prefixes ...string) LogHandlerOption {
	return func(h *LogHandler) {
		h.ignorePrefixes = append(h.ignorePrefixes, prefixes...)
	}
}

func NewLogHandler(opts ...LogHandlerOption) *LogHandler {
	h := &LogHandler{out: os.Stdout, state: &handlerState{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level != slog.LevelDebug || !h.ignoreDebug
}

//nolint:gocritic
func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	for _, p := range h.ignorePrefixes {
		if strings.HasPrefix(r.Message, p) {
			return nil
		}
	}

	parts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		parts = append(parts, formatAttr(a, ""))
	}
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, formatAttr(a, prefix))
		return true
	})

	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	line := fmt.Sprintf("[%d] %s: %s", h.state.index, r.Level, r.Message)
	if len(parts) > 0 {
		line += " " + strings.Join(parts, ", ")
	}
	h.state.index++
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	next := *h
	next.attrs = h.attrs[:len(h.attrs):len(h.attrs)]
	for _, a := range attrs {
		a.Key = prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &next
}

func formatAttr(a slog.Attr, prefix string) string {
	if a.Value.Kind() == slog.KindGroup {
		parts := make([]string, 0, len(a.Value.Group()))
		for _, ga := range a.Value.Group() {
			parts = append(parts, formatAttr(ga, prefix+a.Key+"."))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s%s=%v", prefix, a.Key, a.Value)
}
