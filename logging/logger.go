package logging

import (
	"context"
	"io"
	"log/slog"
)

// Logger is a structured logger for the simulator: it wraps slog.Logger
// with the small set of attribute helpers and component/stream scoping
// the Simulator and its collaborators actually emit.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the given handler.
func New(handler slog.Handler) *Logger {
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a new Logger with text output format.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}
	return New(slog.NewTextHandler(w, opts))
}

// NewJSONLogger creates a new Logger with JSON output format.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}
	return New(slog.NewJSONHandler(w, opts))
}

// NewNopLogger creates a logger that discards all output. It is the
// Simulator's default logger when none is supplied via WithLogger.
func NewNopLogger() *Logger {
	return New(nopHandler{})
}

// With returns a new Logger with the given attributes added to every log entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// WithComponent returns a new Logger with a component attribute.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithStream returns a new Logger with a stream attribute, for scoping log
// lines to VerifiedProposalStream or CandidateBlockStream emissions.
func (l *Logger) WithStream(name string) *Logger {
	return l.With(Stream(name))
}

// Component creates a component attribute for identifying the source module.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Stream creates a stream name attribute.
func Stream(name string) slog.Attr {
	return slog.String("stream", name)
}

// Height creates a block height attribute.
func Height(h int64) slog.Attr {
	return slog.Int64("height", h)
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Reason creates a reason attribute, used for the free-form panic-recovery
// and drop-cause messages the Simulator logs.
func Reason(r string) slog.Attr {
	return slog.String("reason", r)
}

// nopHandler is a slog.Handler that discards all logs.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
