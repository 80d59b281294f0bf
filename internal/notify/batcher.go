package notify

import (
	"time"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// Batcher coalesces notification requests so fire runs at most once per
// interval. Requests made while a run is pending join that run.
type Batcher struct {
	sched    contracts.Scheduler
	interval time.Duration
	fire     func()

	pending bool
	gen     uint64
	timer   contracts.Timer
}

// NewBatcher creates a batcher calling fire no more than once per interval.
func NewBatcher(sched contracts.Scheduler, interval time.Duration, fire func()) *Batcher {
	return &Batcher{sched: sched, interval: interval, fire: fire}
}

// Request schedules fire unless a run is already pending.
func (b *Batcher) Request() {
	if b.pending {
		return
	}
	b.pending = true
	gen := b.gen
	b.timer = b.sched.AfterFunc(b.interval, func() { b.run(gen) })
}

// Pending reports whether a run is scheduled.
func (b *Batcher) Pending() bool {
	return b.pending
}

// Cancel drops a pending run.
func (b *Batcher) Cancel() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = false
	b.gen++
}

func (b *Batcher) run(gen uint64) {
	// A stale timer may still run after Cancel once the caller's lock is free.
	if !b.pending || gen != b.gen {
		return
	}
	b.pending = false
	b.timer = nil
	b.gen++
	b.fire()
}
