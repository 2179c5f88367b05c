package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog for structured logging
// This allows us to add custom functionality and swap implementations if needed
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// Options configures a Logger
type Options struct {
	Level string

	// File, when set, receives a copy of every record and is rotated by size
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output defaults to os.Stdout
	Output io.Writer
}

type requestIDKey struct{}

// New creates a JSON logger writing to stdout
func New(level string) *Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a JSON logger, optionally tee'd to a rotating file
func NewWithOptions(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var file *lumberjack.Logger
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		out = io.MultiWriter(out, file)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	})

	return &Logger{Logger: slog.New(handler), file: file}
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ContextWithRequestID stores a request id for WithContext to pick up
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// WithContext adds context values to the logger
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if requestID, ok := RequestIDFromContext(ctx); ok {
		return &Logger{Logger: l.With("request_id", requestID), file: l.file}
	}
	return l
}

// WithFields adds additional fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...), file: l.file}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
