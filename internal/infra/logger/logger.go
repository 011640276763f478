package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New JSON в stdout; в dev уровень debug. format "text" — для локального запуска.
func New(env, format string) *slog.Logger {
	return NewTo(os.Stdout, env, format)
}

func NewTo(w io.Writer, env, format string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", "site-materials")
}
