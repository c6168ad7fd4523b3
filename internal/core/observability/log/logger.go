package log

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

// Options selects the level and encoder of a Logger.
type Options struct {
	Level Level
	// Encoding is "json" or "console".
	Encoding string
	// Sampling thins repeated entries per second; the collision pass can log
	// the same pair every frame at debug level.
	Sampling bool
}

type Logger struct {
	zapLogger *zap.Logger
	zapLevel  zap.AtomicLevel
}

// New builds a JSON logger at level writing to stderr.
func New(level Level) *Logger {
	logger, err := NewWithOptions(Options{Level: level, Encoding: "json", Sampling: true})
	if err != nil {
		panic(err)
	}
	return logger
}

func NewWithOptions(opts Options) (*Logger, error) {
	atomicLevel := zap.NewAtomicLevelAt(toZapLevel(opts.Level))
	encoding := opts.Encoding
	if encoding == "" {
		encoding = "json"
	}
	if encoding != "json" && encoding != "console" {
		return nil, fmt.Errorf("unknown log encoding %q", encoding)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	if opts.Sampling {
		config.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		zapLogger: zapLogger,
		zapLevel:  atomicLevel,
	}, nil
}

// Nop discards everything. Used by tests and as a nil-safe default.
func Nop() *Logger {
	return &Logger{
		zapLogger: zap.NewNop(),
		zapLevel:  zap.NewAtomicLevelAt(zap.FatalLevel),
	}
}

// Zap exposes the underlying logger for libraries that want one directly.
func (l *Logger) Zap() *zap.Logger { return l.zapLogger }

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.zapLogger.Sync() }

func (l *Logger) Log(level Level, msg string, fields ...Field) {
	if !l.zapLevel.Enabled(toZapLevel(level)) {
		return
	}
	l.zapLogger.Log(toZapLevel(level), msg, toZapFields(fields...)...)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	if !l.zapLevel.Enabled(zap.DebugLevel) {
		return
	}
	l.zapLogger.Debug(msg, toZapFields(fields...)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, toZapFields(fields...)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, toZapFields(fields...)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, toZapFields(fields...)...)
}

func (l *Logger) Fatal(msg string, fields ...Field) {
	l.zapLogger.Fatal(msg, toZapFields(fields...)...)
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{
		zapLogger: l.zapLogger.With(toZapFields(fields...)...),
		zapLevel:  l.zapLevel,
	}
}

func (l *Logger) Named(name string) Log {
	return &Logger{
		zapLogger: l.zapLogger.Named(name),
		zapLevel:  l.zapLevel,
	}
}

func (l *Logger) WithContext(_ context.Context) Log {
	// Nothing is propagated through contexts yet.
	return l
}

// SetLevel changes the level for this logger and every logger derived from it.
func (l *Logger) SetLevel(level Level) {
	l.zapLevel.SetLevel(toZapLevel(level))
}

func (l *Logger) GetLevel() Level {
	return fromZapLevel(l.zapLevel.Level())
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	case LevelFatal:
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func fromZapLevel(level zapcore.Level) Level {
	switch level {
	case zap.DebugLevel:
		return LevelDebug
	case zap.InfoLevel:
		return LevelInfo
	case zap.WarnLevel:
		return LevelWarn
	case zap.ErrorLevel:
		return LevelError
	case zap.FatalLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}

func toZapFields(fields ...Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		zapFields[i] = toZapField(f)
	}
	return zapFields
}

func toZapField(f Field) zap.Field {
	switch v := f.Value.(type) {
	case nil:
		return zap.Skip()
	case bool:
		if f.Type == BoolType {
			return zap.Bool(f.Key, v)
		}
	case string:
		if f.Type == StringType {
			return zap.String(f.Key, v)
		}
	case int:
		if f.Type == IntType {
			return zap.Int(f.Key, v)
		}
	case int64:
		if f.Type == Int64Type {
			return zap.Int64(f.Key, v)
		}
	case int32:
		if f.Type == Int32Type {
			return zap.Int32(f.Key, v)
		}
	case uint:
		if f.Type == UintType {
			return zap.Uint(f.Key, v)
		}
	case uint64:
		if f.Type == Uint64Type {
			return zap.Uint64(f.Key, v)
		}
	case uint32:
		if f.Type == Uint32Type {
			return zap.Uint32(f.Key, v)
		}
	case float64:
		if f.Type == Float64Type {
			return zap.Float64(f.Key, v)
		}
	case error:
		if f.Type == ErrorType {
			return zap.NamedError(f.Key, v)
		}
	}
	switch f.Type {
	case DurationType, TimeType:
		return zap.Any(f.Key, f.Value)
	case StringerType:
		if s, ok := f.Value.(fmt.Stringer); ok {
			return zap.Stringer(f.Key, s)
		}
	}
	return zap.Any(f.Key, f.Value)
}
