package contracts

import "time"

// Timer is a pending callback created by Scheduler.AfterFunc.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Scheduler is the only source of time and deferred work for the engine.
// The flush interval of the throttle stage and the notification frame budget
// are both expressed through it, so tests can drive them with a fake clock.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}
