// Package logger is the process-wide structured logger. It wraps log/slog
// with a coloured text handler for terminals, a JSON handler for
// collectors, and per-operation context fields (see LogContext).
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

// sink is where records go and how they are rendered.
type sink struct {
	w     io.Writer
	color bool
	json  bool

	// closer is set when the logger opened w itself (file output).
	closer io.Closer
}

var (
	level slog.LevelVar

	mu      sync.RWMutex
	current = sink{w: os.Stdout, color: isTerminal(os.Stdout)}
	slogger *slog.Logger
)

func init() {
	rebuild()
}

// rebuild swaps the handler for the current sink. Callers hold mu or run
// before any concurrent use.
func rebuild() {
	opts := &slog.HandlerOptions{Level: &level}
	if current.json {
		slogger = slog.New(slog.NewJSONHandler(current.w, opts))
		return
	}
	slogger = slog.New(NewColorTextHandler(current.w, opts, current.color))
}

func swap(fn func(s *sink)) {
	mu.Lock()
	defer mu.Unlock()
	fn(&current)
	rebuild()
}

// Init applies cfg. Output can be "stdout", "stderr", or a file path opened
// in append mode; a file opened by an earlier Init is closed.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, color, closer, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		swap(func(s *sink) {
			if s.closer != nil {
				_ = s.closer.Close()
			}
			s.w, s.color, s.closer = w, color, closer
		})
	}

	SetLevel(cfg.Level)
	SetFormat(cfg.Format)
	return nil
}

func openOutput(name string) (io.Writer, bool, io.Closer, error) {
	switch strings.ToLower(name) {
	case "stdout":
		return os.Stdout, isTerminal(os.Stdout), nil, nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr), nil, nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, nil, fmt.Errorf("failed to open log file %q: %w", name, err)
	}
	return f, false, f, nil
}

// InitWithWriter sends output to w. Used by tests and embedders.
func InitWithWriter(w io.Writer, lvl, format string, enableColor bool) {
	swap(func(s *sink) {
		s.w, s.color, s.closer = w, enableColor, nil
	})
	SetLevel(lvl)
	SetFormat(format)
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to slog levels.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return 0, false
}

// SetLevel sets the minimum level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := ParseLevel(name); ok {
		level.Set(l)
	}
}

// SetFormat selects text or json output. Unknown names are ignored.
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case "text":
		swap(func(s *sink) { s.json = false })
	case "json":
		swap(func(s *sink) { s.json = true })
	}
}

// Enabled reports whether records at l are emitted.
func Enabled(l slog.Level) bool {
	return l >= level.Level()
}

// With returns a logger with additional attributes.
func With(args ...any) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger.With(args...)
}

func emit(ctx context.Context, l slog.Level, msg string, args []any) {
	if !Enabled(l) {
		return
	}
	args = appendContextFields(ctx, args)
	mu.RLock()
	lg := slogger
	mu.RUnlock()
	lg.Log(ctx, l, msg, args...)
}

// Debug logs at debug level: Debug("message", "key1", value1, ...).
func Debug(msg string, args ...any) { emit(context.Background(), slog.LevelDebug, msg, args) }

// Info logs at info level.
func Info(msg string, args ...any) { emit(context.Background(), slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { emit(context.Background(), slog.LevelWarn, msg, args) }

// Error logs at error level.
func Error(msg string, args ...any) { emit(context.Background(), slog.LevelError, msg, args) }

// DebugCtx logs at debug level, prefixed with the LogContext fields of ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx logs at info level with context.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx logs at warn level with context.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx logs at error level with context.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelError, msg, args)
}

// appendContextFields puts the LogContext fields of ctx before args.
func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := [...]struct{ key, value string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyOperation, lc.Operation},
		{KeyRoot, lc.Root},
		{KeyTable, lc.Table},
	}
	out := make([]any, 0, 2*len(fields)+len(args))
	for _, f := range fields {
		if f.value != "" {
			out = append(out, f.key, f.value)
		}
	}
	return append(out, args...)
}

// Duration returns the time since start in milliseconds.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// The printf variants serve third-party loggers (badger, zookeeper) that
// only speak format strings.

func logf(l slog.Level, format string, v []any) {
	if !Enabled(l) {
		return
	}
	emit(context.Background(), l, fmt.Sprintf(format, v...), nil)
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, v ...any) { logf(slog.LevelDebug, format, v) }

// Infof logs a formatted message at info level.
func Infof(format string, v ...any) { logf(slog.LevelInfo, format, v) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, v ...any) { logf(slog.LevelWarn, format, v) }

// Errorf logs a formatted message at error level.
func Errorf(format string, v ...any) { logf(slog.LevelError, format, v) }
