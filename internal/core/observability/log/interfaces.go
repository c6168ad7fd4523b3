package log

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Log is the structured logger every component receives. Fields are typed so
// the zap encoder does not fall back to reflection on hot paths.
type Log interface {
	Log(level Level, msg string, fields ...Field)

	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	With(fields ...Field) Log
	Named(name string) Log
	WithContext(ctx context.Context) Log

	SetLevel(level Level)
	GetLevel() Level
}

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel accepts the names produced by Level.String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

type Field struct {
	Key   string
	Type  FieldType
	Value any
}

// A FieldType indicates which member of the Field union struct should be used
// and how it should be serialized.
type FieldType uint8

const (
	UnknownType FieldType = iota
	BoolType
	DurationType
	Float64Type
	IntType
	Int64Type
	Int32Type
	StringType
	TimeType
	UintType
	Uint64Type
	Uint32Type
	ErrorType
	StringerType
)

func Any(key string, val any) Field                { return Field{Key: key, Type: UnknownType, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Type: BoolType, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Type: DurationType, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Type: Float64Type, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Type: IntType, Value: val} }
func Int64(key string, val int64) Field            { return Field{Key: key, Type: Int64Type, Value: val} }
func Int32(key string, val int32) Field            { return Field{Key: key, Type: Int32Type, Value: val} }
func String(key string, val string) Field          { return Field{Key: key, Type: StringType, Value: val} }
func Time(key string, val time.Time) Field         { return Field{Key: key, Type: TimeType, Value: val} }
func Uint(key string, val uint) Field              { return Field{Key: key, Type: UintType, Value: val} }
func Uint64(key string, val uint64) Field          { return Field{Key: key, Type: Uint64Type, Value: val} }
func Uint32(key string, val uint32) Field          { return Field{Key: key, Type: Uint32Type, Value: val} }

// Error logs err under the "error" key.
func Error(err error) Field { return ErrorWithKey("error", err) }

func ErrorWithKey(key string, err error) Field {
	return Field{Key: key, Type: ErrorType, Value: err}
}

// Stringer defers formatting until the entry is actually written. Entity IDs
// and layer sets are logged this way.
func Stringer(key string, val fmt.Stringer) Field {
	return Field{Key: key, Type: StringerType, Value: val}
}
