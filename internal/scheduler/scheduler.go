// Package scheduler provides the real-time contracts.Scheduler.
package scheduler

import (
	"time"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

type realtime struct{}

// New returns a Scheduler backed by the runtime timers. Callbacks run on
// their own goroutine; the engine serializes them.
func New() contracts.Scheduler {
	return realtime{}
}

func (realtime) Now() time.Time {
	return time.Now()
}

func (realtime) AfterFunc(d time.Duration, fn func()) contracts.Timer {
	return time.AfterFunc(d, fn)
}
