// Package drgolog is the ambient structured logger threaded through the
// indexer and binary reader. It plays the role the teacher's Tracer /
// TracerWithContextStack pair plays for its CPU components (tracedhardware.go):
// a context object passed down through nested operations, decorating each
// one with the operation name and its enclosing stack — but built on
// log/slog instead of a hand-rolled Tracer interface, and fanned out with
// github.com/samber/slog-multi to a colorized stderr handler and an
// optional JSON file handler.
package drgolog

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
)

// Logger wraps *slog.Logger with an operation-stack convention: Operation
// pushes one named frame (mirroring the teacher's PushContext/PopContext),
// returning a child Logger whose log lines all carry the accumulated
// "operation" attribute chain.
type Logger struct {
	*slog.Logger
}

// Config selects where log output goes and at what level.
type Config struct {
	Level   slog.Level
	LogFile string // empty disables the JSON file handler
	NoColor bool
}

// New builds the ambient logger: a colorized text handler on stderr, plus
// (when cfg.LogFile is set) a JSON handler writing to that file, fanned
// out via slogmulti.Fanout so every record reaches both sinks.
func New(cfg Config) (*Logger, error) {
	handlers := []slog.Handler{newColorHandler(os.Stderr, cfg.Level, cfg.NoColor)}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level}))
	}

	handler := slogmulti.Fanout(handlers...)
	return &Logger{Logger: slog.New(handler)}, nil
}

// Operation returns a child logger carrying an "operation" attribute set to
// name, the same way the teacher's PushContext annotates a trace with the
// function currently executing. Nesting calls adds one more "operation"
// attribute per level through slog's With, the way ContextStack compounds
// frames.
func (l *Logger) Operation(name string, args ...any) *Logger {
	attrs := append([]any{slog.String("operation", name)}, args...)
	return &Logger{Logger: l.Logger.With(attrs...)}
}

// WithContext binds the logger into ctx so a deeply nested call can recover
// it with FromContext instead of threading it through every signature.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

type loggerKey struct{}

// FromContext recovers a logger bound by WithContext, or a disabled
// discard logger if none was bound.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// colorHandler wraps slog.NewTextHandler's output, colorizing the level
// field the way the teacher's StdoutTracer indents trace lines by depth:
// a small, single-purpose pretty-printing pass over otherwise-plain output.
type colorHandler struct {
	slog.Handler
	out     io.Writer
	noColor bool
}

func newColorHandler(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return &colorHandler{
		Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
		out:     w,
		noColor: noColor,
	}
}

func (h *colorHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.noColor {
		return h.Handler.Handle(ctx, r)
	}

	levelColor := colorForLevel(r.Level)
	r.Message = levelColor.Sprint(r.Level.String()) + " " + r.Message
	return h.Handler.Handle(ctx, r)
}

func colorForLevel(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		return color.New(color.FgYellow)
	case level >= slog.LevelInfo:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgHiBlack)
	}
}
