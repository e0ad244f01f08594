package diagnostic

import (
	"context"
	"log/slog"
)

// Sink receives diagnostics. Reporting never aborts processing.
type Sink interface {
	Error(kind Kind, loc Location, params Params)
	Warning(kind Kind, loc Location, params Params)
	Info(kind Kind, loc Location, params Params)
}

var _ Sink = (*Diagnostics)(nil)

// LoggingSink forwards diagnostics to Next and logs each of them.
type LoggingSink struct {
	Next   Sink
	Logger *slog.Logger
}

// NewLoggingSink wraps next. A nil logger discards the log output.
func NewLoggingSink(next Sink, logger *slog.Logger) *LoggingSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &LoggingSink{Next: next, Logger: logger}
}

// Error implements Sink.
func (s *LoggingSink) Error(kind Kind, loc Location, params Params) {
	s.log(slog.LevelError, kind, loc, params)
	s.Next.Error(kind, loc, params)
}

// Warning implements Sink.
func (s *LoggingSink) Warning(kind Kind, loc Location, params Params) {
	s.log(slog.LevelWarn, kind, loc, params)
	s.Next.Warning(kind, loc, params)
}

// Info implements Sink.
func (s *LoggingSink) Info(kind Kind, loc Location, params Params) {
	s.log(slog.LevelInfo, kind, loc, params)
	s.Next.Info(kind, loc, params)
}

func (s *LoggingSink) log(level slog.Level, kind Kind, loc Location, params Params) {
	s.Logger.LogAttrs(context.Background(), level, Format(kind, params),
		slog.String("code", kind.String()),
		slog.String("location", loc.String()),
	)
}
