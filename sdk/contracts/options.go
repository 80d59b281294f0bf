package contracts

import "time"

// Defaults applied by the sdk when an option is left unset.
const (
	DefaultThrottleInterval         = time.Millisecond
	DefaultFallbackThrottleInterval = 5 * time.Millisecond
	DefaultLoadThreshold            = 100.0 // messages per second
	DefaultRecentActivityCapacity   = 50
	DefaultDisplayLimit             = 20
	DefaultNotifyInterval           = 16 * time.Millisecond
	DefaultCaptureBuffer            = 100
)

// MessageFilter restricts which messages enter the engine.
// Empty lists accept everything.
type MessageFilter struct {
	Types    []MessageType // Accepted message types; note-off is accepted with note-on.
	Channels []int         // Accepted channels, 1..16.
}

// Allows reports whether msg passes the filter.
func (f *MessageFilter) Allows(msg NormalizedMessage) bool {
	if f == nil {
		return true
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if t.Family() == msg.Type.Family() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Channels) > 0 {
		for _, ch := range f.Channels {
			if ch == msg.Channel {
				return true
			}
		}
		return false
	}
	return true
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// Options configures the engine and the transports.
type Options struct {
	Logger         Logger         // Logger for diagnostics.
	LogLevel       LogLevel       // Level of logging to use.
	LogFilePath    string         // File path for logging if file logging is enabled.
	MessageFilter  *MessageFilter // Optional filter applied after normalization.
	CoreMIDIConfig *CoreMIDIConfig
	Driver         string // Transport driver: "coremidi", "winmm" or "rtmidi". Empty picks by OS.
	Scheduler      Scheduler

	ThrottleInterval         time.Duration // Flush interval for continuous controls.
	FallbackThrottleInterval time.Duration // Flush interval used while under load.
	LoadThreshold            float64       // Messages per second that count as load.
	RecentActivityCapacity   int           // Size of the recent activity log.
	NotifyInterval           time.Duration // Subscriber notification frame budget.
	CaptureBuffer            int           // Capacity of the transport event channel.
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithLogFile directs logs to path.
func WithLogFile(path string) Option {
	return func(opts *Options) {
		opts.LogFilePath = path
	}
}

// WithMessageFilter sets the message filter.
func WithMessageFilter(filter MessageFilter) Option {
	return func(opts *Options) {
		opts.MessageFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *Options) {
		opts.CoreMIDIConfig = &config
	}
}

// WithDriver selects the transport driver by name.
func WithDriver(name string) Option {
	return func(opts *Options) {
		opts.Driver = name
	}
}

// WithScheduler replaces the real-time scheduler, typically with a fake clock in tests.
func WithScheduler(s Scheduler) Option {
	return func(opts *Options) {
		opts.Scheduler = s
	}
}

// WithThrottleInterval sets the flush interval for continuous controls.
func WithThrottleInterval(d time.Duration) Option {
	return func(opts *Options) {
		opts.ThrottleInterval = d
	}
}

// WithFallbackThrottleInterval sets the flush interval used under load.
func WithFallbackThrottleInterval(d time.Duration) Option {
	return func(opts *Options) {
		opts.FallbackThrottleInterval = d
	}
}

// WithLoadThreshold sets the message rate above which the fallback interval applies.
func WithLoadThreshold(perSecond float64) Option {
	return func(opts *Options) {
		opts.LoadThreshold = perSecond
	}
}

// WithRecentActivityCapacity sets how many messages the recent activity log keeps.
func WithRecentActivityCapacity(n int) Option {
	return func(opts *Options) {
		opts.RecentActivityCapacity = n
	}
}

// WithNotifyInterval sets the subscriber notification frame budget.
func WithNotifyInterval(d time.Duration) Option {
	return func(opts *Options) {
		opts.NotifyInterval = d
	}
}

// WithCaptureBuffer sets the capacity of the channel transports deliver into.
func WithCaptureBuffer(n int) Option {
	return func(opts *Options) {
		opts.CaptureBuffer = n
	}
}
