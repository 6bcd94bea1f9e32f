package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	ComponentKey = "component"
	ErrorKey     = "error"
)

// New builds the process logger. Unknown levels fall back to info and unknown
// formats to json.
func New(level string, format string) *slog.Logger {
	return newWithWriter(os.Stderr, level, format)
}

// NewDummy returns a logger that drops everything. Meant for tests.
func NewDummy() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWithWriter(w io.Writer, level string, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
