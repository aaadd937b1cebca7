// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface used throughout the application.
// External loggers that implement these methods can be wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter adapts a Logger to the application's logging interface.
type ZapAdapter struct {
	log Logger
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
func NewZapAdapter(log Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, fields)
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, fields)
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, fields)
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, fields)
}

// Sync flushes the wrapped logger when it buffers output.
func (a *ZapAdapter) Sync() error {
	if s, ok := a.log.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// ConsoleLogger writes human readable logs through a zap development encoder.
// It is used when LOG_FORMAT=console.
type ConsoleLogger struct {
	log *zap.Logger
}

// NewConsoleLogger wraps an existing zap logger.
func NewConsoleLogger(log *zap.Logger) *ConsoleLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsoleLogger{log: log}
}

// NewConsoleLoggerFromLevel builds a console logger writing to stderr at the
// given level (debug, info, warn, error).
func NewConsoleLoggerFromLevel(level string) (*ConsoleLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build console logger: %w", err)
	}
	return &ConsoleLogger{log: log}, nil
}

// Info logs an info message.
func (c *ConsoleLogger) Info(_ context.Context, msg string, fields map[string]any) {
	c.log.Info(msg, zapFields(fields)...)
}

// Debug logs a debug message.
func (c *ConsoleLogger) Debug(_ context.Context, msg string, fields map[string]any) {
	c.log.Debug(msg, zapFields(fields)...)
}

// Warn logs a warning message.
func (c *ConsoleLogger) Warn(_ context.Context, msg string, fields map[string]any) {
	c.log.Warn(msg, zapFields(fields)...)
}

// Error logs an error message.
func (c *ConsoleLogger) Error(_ context.Context, msg string, err error, fields map[string]any) {
	c.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

// Sync flushes buffered log entries.
func (c *ConsoleLogger) Sync() error {
	return c.log.Sync()
}

// zapFields converts a field map to zap fields ordered by key.
func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		out = append(out, zap.Any(key, fields[key]))
	}
	return out
}
