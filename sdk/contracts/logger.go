package contracts

import "time"

// LogLevel represents the severity level for logging.
// The zero value means "not set" so option defaulting can tell it apart from DebugLevel.
type LogLevel int

const (
	// DebugLevel reports per-message detail such as filtered events and learn captures.
	DebugLevel LogLevel = iota + 1
	// InfoLevel reports lifecycle progress (device connected, capture started).
	InfoLevel
	// WarnLevel reports recoverable conditions the caller should know about.
	WarnLevel
	// ErrorLevel reports faults such as a panicking subscriber.
	ErrorLevel
	// FatalLevel reports unrecoverable errors and terminates the process.
	FatalLevel
)

// String returns the lower-case level name.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return "unset"
	}
}

// LogDestination specifies where the log messages should be directed.
type LogDestination string

const (
	// ConsoleLog directs log messages to stderr.
	ConsoleLog LogDestination = "console"
	// FileLog directs log messages to a file. Terminal UIs use it to keep the screen clean.
	FileLog LogDestination = "file"
)

// Field is a typed key/value pair attached to a log entry.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Time(key string, val time.Time) Field
	Duration(key string, val time.Duration) Field
	Int64(key string, val int64) Field
	Error(key string, val error) Field
	Uint64(key string, val uint64) Field
	Uint8(key string, val uint8) Field
	Any(key string, val interface{}) Field
}

// Logger provides levelled, structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	SetLevel(level LogLevel)
	SetDestination(dest LogDestination, filePath ...string)
	Sync() error
}
