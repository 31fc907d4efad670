package log

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	contextx "github.com/fermoza/mika-go/internal/mika/context"
)

// Logger is a context-aware structured logger backed by zap.
type Logger struct {
	z *zap.Logger
}

// Field is one key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// KV builds a Field.
func KV(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NewLogger builds a logger for the given level ("debug", "info", ...) and
// format ("json" or "console").
func NewLogger(level, format string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	if strings.EqualFold(format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return New(z), nil
}

// New wraps an existing zap logger.
func New(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return New(zap.NewNop())
}

func (l *Logger) Info(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, message, fields)
}

func (l *Logger) Error(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, message, fields)
}

func (l *Logger) Warn(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, message, fields)
}

func (l *Logger) Debug(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, message, fields)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, message string, fields []Field) {
	ce := l.z.Check(level, message)
	if ce == nil {
		return
	}

	zfields := make([]zap.Field, 0, len(fields)+1)
	if id, ok := contextx.GetRequestID(ctx); ok {
		zfields = append(zfields, zap.String("request_id", id))
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			zfields = append(zfields, zap.NamedError(f.Key, err))
			continue
		}
		zfields = append(zfields, zap.Any(f.Key, f.Value))
	}
	ce.Write(zfields...)
}
