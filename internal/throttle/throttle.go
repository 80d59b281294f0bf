// Package throttle collapses bursts of continuous-control messages to the
// latest value per control key per flush interval.
package throttle

import (
	"time"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

const loadWindow = time.Second

// Sink receives flushed messages, one batch per call.
type Sink func(batch []contracts.NormalizedMessage)

// Config holds the throttle timing parameters.
type Config struct {
	Interval         time.Duration
	FallbackInterval time.Duration
	LoadThreshold    float64 // messages per second; <= 0 disables the fallback
}

// Throttler holds one pending slot per ControlKey for continuous messages
// and forwards everything else straight to the sink. It is not safe for
// concurrent use; the engine serializes access.
type Throttler struct {
	logger contracts.Logger
	sched  contracts.Scheduler
	cfg    Config
	sink   Sink

	slots   []contracts.NormalizedMessage
	index   map[contracts.ControlKey]int
	timer   contracts.Timer
	gen     uint64
	flushes int

	underLoad   bool
	windowStart time.Time
	windowCount int
}

// New creates a throttler flushing into sink.
func New(logger contracts.Logger, sched contracts.Scheduler, cfg Config, sink Sink) *Throttler {
	if cfg.Interval <= 0 {
		cfg.Interval = contracts.DefaultThrottleInterval
	}
	if cfg.FallbackInterval < cfg.Interval {
		cfg.FallbackInterval = cfg.Interval
	}
	return &Throttler{
		logger:      logger,
		sched:       sched,
		cfg:         cfg,
		sink:        sink,
		index:       make(map[contracts.ControlKey]int),
		windowStart: sched.Now(),
	}
}

// Submit routes msg. Continuous messages overwrite their key's pending slot
// and are delivered on the next flush; all others go to the sink at once.
func (t *Throttler) Submit(msg contracts.NormalizedMessage) {
	t.observeLoad()
	if !msg.Type.Continuous() {
		t.sink([]contracts.NormalizedMessage{msg})
		return
	}
	key := msg.Key()
	if i, ok := t.index[key]; ok {
		t.slots[i] = msg
	} else {
		t.index[key] = len(t.slots)
		t.slots = append(t.slots, msg)
	}
	if t.timer == nil {
		gen := t.gen
		t.timer = t.sched.AfterFunc(t.Interval(), func() { t.onTimer(gen) })
	}
}

// Interval returns the flush interval currently in effect.
func (t *Throttler) Interval() time.Duration {
	if t.underLoad {
		return t.cfg.FallbackInterval
	}
	return t.cfg.Interval
}

// UnderLoad reports whether the fallback interval is active.
func (t *Throttler) UnderLoad() bool {
	return t.underLoad
}

// Pending returns the number of keys waiting for the next flush.
func (t *Throttler) Pending() int {
	return len(t.slots)
}

// Flushes returns how many non-empty batches have been delivered.
func (t *Throttler) Flushes() int {
	return t.flushes
}

// Flush delivers pending slots immediately.
func (t *Throttler) Flush() {
	t.stopTimer()
	if len(t.slots) == 0 {
		return
	}
	batch := t.slots
	t.slots = nil
	t.index = make(map[contracts.ControlKey]int, len(batch))
	t.flushes++
	t.sink(batch)
}

// Reset drops pending slots without delivering them.
func (t *Throttler) Reset() {
	t.stopTimer()
	t.slots = nil
	t.index = make(map[contracts.ControlKey]int)
}

func (t *Throttler) onTimer(gen uint64) {
	if gen != t.gen {
		return
	}
	t.timer = nil
	t.Flush()
}

func (t *Throttler) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// observeLoad switches between the primary and fallback interval based on
// the submission rate of the previous window.
func (t *Throttler) observeLoad() {
	t.windowCount++
	if t.cfg.LoadThreshold <= 0 {
		return
	}
	now := t.sched.Now()
	elapsed := now.Sub(t.windowStart)
	if elapsed < loadWindow {
		return
	}
	rate := float64(t.windowCount) / elapsed.Seconds()
	t.windowCount = 0
	t.windowStart = now

	loaded := rate > t.cfg.LoadThreshold
	if loaded == t.underLoad {
		return
	}
	t.underLoad = loaded
	if loaded {
		t.logger.Warn("message rate above load threshold, using fallback throttle interval",
			t.logger.Field().Float64("rate", rate),
			t.logger.Field().Duration("interval", t.cfg.FallbackInterval))
		return
	}
	t.logger.Info("message rate back to normal, using primary throttle interval",
		t.logger.Field().Float64("rate", rate),
		t.logger.Field().Duration("interval", t.cfg.Interval))
}
