package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel parses a level name: debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}

	return level, nil
}

// NewLogger builds the process logger. Each verbosity step lowers the
// configured level by one slog level step; quiet restricts output to errors.
func NewLogger(w io.Writer, cfg LogConfig, verbosity int, quiet bool) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	level -= slog.Level(4 * verbosity)
	if level < slog.LevelDebug {
		level = slog.LevelDebug
	}

	if quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}

	return slog.New(slog.NewTextHandler(w, opts)), nil
}
