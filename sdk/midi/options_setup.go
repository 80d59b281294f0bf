package midi

import (
	"github.com/akisma/pioneer-vision/internal/logger"
	"github.com/akisma/pioneer-vision/internal/scheduler"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// applyDefaultOptions sets default values for Options if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.Options, error) {
	options := &contracts.Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "Pioneer Vision"}
	}
	if options.Scheduler == nil {
		options.Scheduler = scheduler.New()
	}
	if options.ThrottleInterval <= 0 {
		options.ThrottleInterval = contracts.DefaultThrottleInterval
	}
	if options.FallbackThrottleInterval <= 0 {
		options.FallbackThrottleInterval = contracts.DefaultFallbackThrottleInterval
	}
	if options.LoadThreshold == 0 {
		options.LoadThreshold = contracts.DefaultLoadThreshold
	}
	if options.RecentActivityCapacity <= 0 {
		options.RecentActivityCapacity = contracts.DefaultRecentActivityCapacity
	}
	if options.NotifyInterval <= 0 {
		options.NotifyInterval = contracts.DefaultNotifyInterval
	}
	if options.CaptureBuffer <= 0 {
		options.CaptureBuffer = contracts.DefaultCaptureBuffer
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
