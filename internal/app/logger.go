package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/heartmarshall/ranking-backend/internal/config"
)

// NewLogger builds the process logger and installs it as the slog default.
//
// Format "json" is for production; anything else gives text output with
// source locations. Level is one of debug, info, warn, error and defaults
// to info. Every record carries the service name and build version.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	text := !strings.EqualFold(cfg.Format, "json")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: text,
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if text {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(
		slog.String("service", "ranking-engine"),
		slog.String("version", Version),
	)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
