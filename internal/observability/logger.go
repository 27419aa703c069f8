// Package observability provides structured logging and metrics for the advisor.
package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
)

// Logger is the advisor's zerolog handle. Request scoped loggers are derived
// with WithContext and WithOperation; events carry catalog aware field helpers.
type Logger struct {
	zl zerolog.Logger
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Format      string // json or console
	Output      io.Writer
	ServiceName string
}

// NewLogger builds a Logger writing to cfg.Output (stdout when nil).
func NewLogger(cfg LogConfig) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).
		Level(levelFor(cfg.Level)).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Logger()

	return &Logger{zl: zl}
}

// DefaultLogger logs everything to the console.
func DefaultLogger() *Logger {
	return NewLogger(LogConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "storefront-advisor",
	})
}

// NopLogger discards everything. Used by tests and the CLI unless --verbose is set.
func NopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithContext tags the logger with the request's trace ID, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return l
	}
	return &Logger{zl: l.zl.With().Str("trace_id", traceID).Logger()}
}

// WithOperation tags the logger with the advisor operation (advise, search, ping).
func (l *Logger) WithOperation(op string) *Logger {
	return &Logger{zl: l.zl.With().Str("operation", op).Logger()}
}

func (l *Logger) Debug() *LogEvent { return &LogEvent{evt: l.zl.Debug()} }
func (l *Logger) Info() *LogEvent  { return &LogEvent{evt: l.zl.Info()} }
func (l *Logger) Warn() *LogEvent  { return &LogEvent{evt: l.zl.Warn()} }
func (l *Logger) Error() *LogEvent { return &LogEvent{evt: l.zl.Error()} }

// Fatal exits the process after the event is written.
func (l *Logger) Fatal() *LogEvent { return &LogEvent{evt: l.zl.Fatal()} }

// LogEvent is a single log line under construction.
type LogEvent struct {
	evt *zerolog.Event
}

// Tier records a search tier as its number and name.
func (e *LogEvent) Tier(t catalog.Tier) *LogEvent {
	e.evt = e.evt.Int("tier", int(t)).Str("tier_name", t.String())
	return e
}

func (e *LogEvent) Str(key, val string) *LogEvent {
	e.evt = e.evt.Str(key, val)
	return e
}

func (e *LogEvent) Int(key string, val int) *LogEvent {
	e.evt = e.evt.Int(key, val)
	return e
}

func (e *LogEvent) Bool(key string, val bool) *LogEvent {
	e.evt = e.evt.Bool(key, val)
	return e
}

func (e *LogEvent) Strs(key string, val []string) *LogEvent {
	e.evt = e.evt.Strs(key, val)
	return e
}

func (e *LogEvent) Dur(key string, val time.Duration) *LogEvent {
	e.evt = e.evt.Dur(key, val)
	return e
}

func (e *LogEvent) Err(err error) *LogEvent {
	e.evt = e.evt.Err(err)
	return e
}

// Msg writes the event.
func (e *LogEvent) Msg(msg string) {
	e.evt.Msg(msg)
}

// levelFor maps LOG_LEVEL values to zerolog levels, defaulting to info.
func levelFor(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "off":
		return zerolog.Disabled
	case "warning":
		return zerolog.WarnLevel
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && level != "" {
		return lvl
	}
	return zerolog.InfoLevel
}

type contextKey struct{}

// ContextWithTraceID stores the request trace ID for WithContext.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}

// TraceIDFromContext returns the stored trace ID or "".
func TraceIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(contextKey{}).(string)
	return s
}
