package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultMaxLines bounds the in-memory history kept by a Lines sink.
const DefaultMaxLines = 100

// Sink receives human-readable progress lines, one per event.
// Workflows and the parsing cascade report through a Sink so the caller
// (CLI, MCP tool) decides where the lines end up.
type Sink interface {
	Printf(format string, args ...any)
}

// Discard is a Sink that drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Lines is an ordered, bounded log-line history. Every line is stamped
// "[HH:MM:SS] " and optionally mirrored to an io.Writer and a slog.Logger.
type Lines struct {
	mu     sync.Mutex
	lines  []string
	max    int
	out    io.Writer
	logger *slog.Logger
	now    func() time.Time
}

// LinesOption configures a Lines sink.
type LinesOption func(*Lines)

// WithWriter mirrors each stamped line to w.
func WithWriter(w io.Writer) LinesOption {
	return func(l *Lines) { l.out = w }
}

// WithLogger mirrors each line to logger at info level.
func WithLogger(logger *slog.Logger) LinesOption {
	return func(l *Lines) { l.logger = logger }
}

// WithMaxLines sets the history bound; n <= 0 keeps everything.
func WithMaxLines(n int) LinesOption {
	return func(l *Lines) { l.max = n }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) LinesOption {
	return func(l *Lines) { l.now = now }
}

// NewLines creates a Lines sink.
func NewLines(opts ...LinesOption) *Lines {
	l := &Lines{max: DefaultMaxLines, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Printf formats and records one line.
func (l *Lines) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s", l.now().Format("15:04:05"), msg)

	l.mu.Lock()
	l.lines = append(l.lines, line)
	if l.max > 0 && len(l.lines) > l.max {
		l.lines = append([]string(nil), l.lines[len(l.lines)-l.max:]...)
	}
	out := l.out
	l.mu.Unlock()

	if out != nil {
		fmt.Fprintln(out, line)
	}
	if l.logger != nil {
		l.logger.Log(context.Background(), slog.LevelInfo, msg)
	}
}

// Lines returns a copy of the recorded history, oldest first.
func (l *Lines) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Tail returns at most the last n lines.
func (l *Lines) Tail(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n >= len(l.lines) {
		return append([]string(nil), l.lines...)
	}
	return append([]string(nil), l.lines[len(l.lines)-n:]...)
}
