package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/akisma/pioneer-vision/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of go.uber.org/zap.
type ZapLogger struct {
	mu        sync.RWMutex
	logger    *zap.Logger
	closeSink func() // closes the file opened by SetDestination or NewFileLogger
	level     zap.AtomicLevel
}

// NewZapLogger creates a production zap logger writing JSON to stderr.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger, level: level}
}

// NewFileLogger creates a JSON logger appending to path. Close releases the file.
func NewFileLogger(path string) (*ZapLogger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	l, closeSink, err := buildLogger(level, contracts.FileLog, path)
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: l, closeSink: closeSink, level: level}, nil
}

// NewZapLoggerFrom wraps an existing zap logger. Level filtering is left to
// the core of l; SetLevel only raises the threshold further.
func NewZapLoggerFrom(l *zap.Logger) contracts.Logger {
	return &ZapLogger{logger: l, level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() contracts.Logger {
	return NewZapLoggerFrom(zap.NewNop())
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
	os.Exit(1)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination rebuilds the underlying logger so entries go to the console
// or to filePath. A failing file destination keeps the current logger. A file
// opened by an earlier call is closed.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	path := ""
	if len(filePath) > 0 {
		path = filePath[0]
	}
	if dest == contracts.FileLog && path == "" {
		z.Warn("file log destination requested without a path")
		return
	}
	l, closeSink, err := buildLogger(z.level, dest, path)
	if err != nil {
		z.Error("failed to change log destination", z.Field().Error("error", err))
		return
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	z.release()
	z.logger = l
	z.closeSink = closeSink
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.logger.Sync()
}

// Close flushes entries and closes the log file, if any. Later entries are
// discarded.
func (z *ZapLogger) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()
	err := z.release()
	z.logger = zap.NewNop()
	return err
}

// release must be called with mu held.
func (z *ZapLogger) release() error {
	err := z.logger.Sync()
	if z.closeSink != nil {
		z.closeSink()
		z.closeSink = nil
	}
	return err
}

func buildLogger(level zap.AtomicLevel, dest contracts.LogDestination, path string) (*zap.Logger, func(), error) {
	target := "stderr"
	if dest == contracts.FileLog {
		target = path
	}
	sink, closeSink, err := zap.Open(target)
	if err != nil {
		return nil, nil, fmt.Errorf("open log destination %q: %w", target, err)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), sink, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.ErrorOutput(sink)), closeSink, nil
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}
	z.mu.RLock()
	defer z.mu.RUnlock()
	if ce := z.logger.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok && f.set {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
	set   bool
}

func wrap(f zap.Field) contracts.Field {
	return &zapField{field: f, set: true}
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return wrap(zap.Bool(key, val))
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return wrap(zap.Int(key, val))
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return wrap(zap.Float64(key, val))
}

func (f *zapField) String(key string, val string) contracts.Field {
	return wrap(zap.String(key, val))
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return wrap(zap.Time(key, val))
}

func (f *zapField) Duration(key string, val time.Duration) contracts.Field {
	return wrap(zap.Duration(key, val))
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return wrap(zap.Int64(key, val))
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return wrap(zap.NamedError(key, val))
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return wrap(zap.Uint64(key, val))
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return wrap(zap.Uint8(key, val))
}

func (f *zapField) Any(key string, val interface{}) contracts.Field {
	return wrap(zap.Any(key, val))
}
