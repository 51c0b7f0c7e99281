package app

import (
	"io"
	"log/slog"
)

// newLogger builds the logger a build run writes through. It never touches
// the slog default, so concurrent App instances stay isolated. Level and
// format strings were validated by the CLI; anything unrecognized falls
// back to info-level text output.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
