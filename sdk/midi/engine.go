package midi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/akisma/pioneer-vision/internal/control"
	"github.com/akisma/pioneer-vision/internal/normalize"
	"github.com/akisma/pioneer-vision/internal/queue"
	"github.com/akisma/pioneer-vision/internal/throttle"
	"github.com/akisma/pioneer-vision/sdk/contracts"
	"go.uber.org/multierr"
)

// Engine runs the pipeline from raw transport events to control state.
//
// Every inbound event, public call and timer callback runs under one lock,
// so the components behave as if driven by a single thread. Subscriber
// callbacks run after the lock is released and may call back into the
// engine.
type Engine struct {
	mu     sync.Mutex
	outbox []func()
	closed bool

	logger contracts.Logger
	sched  contracts.Scheduler
	filter *contracts.MessageFilter
	buffer int

	queue    *queue.Queue
	throttle *throttle.Throttler
	controls *control.Manager
}

// NewEngine builds an engine from the given options.
func NewEngine(opts ...contracts.Option) (*Engine, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		logger: options.Logger,
		filter: options.MessageFilter,
		buffer: options.CaptureBuffer,
	}
	e.sched = &serialScheduler{engine: e, base: options.Scheduler}

	e.queue = queue.New(e.logger, e.sched, options.RecentActivityCapacity, options.NotifyInterval)
	e.queue.SetDispatcher(e.enqueue)
	e.controls = control.New(e.logger, e.sched, options.NotifyInterval)
	e.controls.SetDispatcher(e.enqueue)
	e.throttle = throttle.New(e.logger, e.sched, throttle.Config{
		Interval:         options.ThrottleInterval,
		FallbackInterval: options.FallbackThrottleInterval,
		LoadThreshold:    options.LoadThreshold,
	}, e.controls.ProcessBatch)

	e.logger.Debug("engine created",
		e.logger.Field().Duration("throttleInterval", options.ThrottleInterval),
		e.logger.Field().Duration("notifyInterval", options.NotifyInterval),
		e.logger.Field().Int("recentActivityCapacity", options.RecentActivityCapacity))
	return e, nil
}

// enqueue defers a subscriber delivery until the lock is released.
func (e *Engine) enqueue(deliver func()) {
	e.outbox = append(e.outbox, deliver)
}

// do runs fn under the engine lock and then flushes the outbox.
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return contracts.ErrEngineClosed
	}
	err := fn()
	out := e.outbox
	e.outbox = nil
	e.mu.Unlock()

	for _, deliver := range out {
		deliver()
	}
	return err
}

// serialScheduler runs timer callbacks under the engine lock.
type serialScheduler struct {
	engine *Engine
	base   contracts.Scheduler
}

func (s *serialScheduler) Now() time.Time {
	return s.base.Now()
}

func (s *serialScheduler) AfterFunc(d time.Duration, fn func()) contracts.Timer {
	return s.base.AfterFunc(d, func() {
		_ = s.engine.do(func() error {
			fn()
			return nil
		})
	})
}

// HandleRawEvent pushes one transport event through the pipeline. Events
// that are not channel messages, or that the message filter rejects, are
// dropped.
func (e *Engine) HandleRawEvent(ev contracts.RawEvent) error {
	return e.do(func() error {
		if ev.ReceivedAt.IsZero() {
			ev.ReceivedAt = e.sched.Now()
		}
		msg := normalize.Normalize(ev)
		if msg.Type == contracts.UnknownMessage {
			e.logger.Debug("ignoring non channel message", e.logger.Field().Uint8("status", ev.Status))
			return nil
		}
		if !e.filter.Allows(msg) {
			return nil
		}
		e.queue.Add(msg)
		e.throttle.Submit(msg)
		return nil
	})
}

// Capture feeds events into the engine until ctx is done or events is
// closed. It returns ctx.Err() on cancellation.
func (e *Engine) Capture(ctx context.Context, events <-chan contracts.RawEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := e.HandleRawEvent(ev); err != nil {
				return err
			}
		}
	}
}

// Listen connects transport to the device at index deviceID and captures
// until ctx is done. The device is reported as connected while capturing
// and disconnected afterwards.
func (e *Engine) Listen(ctx context.Context, transport contracts.Transport, deviceID int) (err error) {
	devices, err := transport.ListDevices()
	if err != nil {
		return err
	}
	info := contracts.DeviceInfo{ID: deviceID}
	for _, d := range devices {
		if d.ID == deviceID {
			info = d
		}
	}
	if err := transport.SelectDevice(deviceID); err != nil {
		return err
	}
	if err := e.OnDeviceConnected(info); err != nil {
		return multierr.Append(err, transport.Stop())
	}

	events := make(chan contracts.RawEvent, e.buffer)
	transport.StartCapture(events)
	defer func() {
		err = multierr.Append(err, transport.Stop())
		if derr := e.OnDeviceDisconnected(); derr != nil && !errors.Is(derr, contracts.ErrEngineClosed) {
			err = multierr.Append(err, derr)
		}
	}()

	err = e.Capture(ctx, events)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// OnDeviceConnected records the connected device.
func (e *Engine) OnDeviceConnected(info contracts.DeviceInfo) error {
	return e.do(func() error {
		e.logger.Info("MIDI device connected", e.logger.Field().String("device", info.String()))
		e.controls.SetDevice(info)
		return nil
	})
}

// OnDeviceDisconnected delivers throttled values still pending and releases
// every pressed button.
func (e *Engine) OnDeviceDisconnected() error {
	return e.do(func() error {
		e.throttle.Flush()
		e.controls.Disconnect()
		e.logger.Info("MIDI device disconnected")
		return nil
	})
}

// MapControl binds a control to a message pattern, replacing its previous
// binding. Use contracts.AnyChannel to match every channel.
func (e *Engine) MapControl(m contracts.Mapping) error {
	return e.do(func() error {
		return e.controls.MapControl(m)
	})
}

// UnmapControl removes the binding of controlID and reports whether it existed.
func (e *Engine) UnmapControl(controlID string) (removed bool, err error) {
	err = e.do(func() error {
		removed = e.controls.UnmapControl(controlID)
		return nil
	})
	return removed, err
}

// StartLearning binds controlID to the next qualifying message. A session
// already in progress is replaced.
func (e *Engine) StartLearning(controlType contracts.ControlType, controlID string) error {
	return e.do(func() error {
		// Values still held by the throttler arrived before learning began
		// and must not be captured by the new session.
		e.throttle.Flush()
		return e.controls.StartLearning(controlType, controlID)
	})
}

// StopLearning cancels the learning session. It is a no-op when idle.
func (e *Engine) StopLearning() error {
	return e.do(func() error {
		e.controls.StopLearning()
		return nil
	})
}

// ClearAll drops mappings, control state, pending throttled values and the
// message history.
func (e *Engine) ClearAll() error {
	return e.do(func() error {
		e.throttle.Reset()
		e.queue.Clear()
		e.controls.Clear()
		e.logger.Info("engine state cleared")
		return nil
	})
}

// SubscribeMessages registers fn for message monitor snapshots.
func (e *Engine) SubscribeMessages(fn func(contracts.QueueSnapshot)) (unsubscribe func(), err error) {
	err = e.do(func() error {
		unsubscribe = e.locked(e.queue.Subscribe(fn))
		return nil
	})
	return unsubscribe, err
}

// SubscribeControls registers fn for control state snapshots.
func (e *Engine) SubscribeControls(fn func(contracts.ControlSnapshot)) (unsubscribe func(), err error) {
	err = e.do(func() error {
		unsubscribe = e.locked(e.controls.Subscribe(fn))
		return nil
	})
	return unsubscribe, err
}

func (e *Engine) locked(fn func()) func() {
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		fn()
	}
}

// read runs fn under the lock; it works after Close.
func (e *Engine) read(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Slider returns the state of a slider.
func (e *Engine) Slider(controlID string) (s contracts.SliderState, ok bool) {
	e.read(func() { s, ok = e.controls.Slider(controlID) })
	return s, ok
}

// Button returns the state of a button.
func (e *Engine) Button(controlID string) (b contracts.ButtonState, ok bool) {
	e.read(func() { b, ok = e.controls.Button(controlID) })
	return b, ok
}

// Mapping returns the binding of controlID.
func (e *Engine) Mapping(controlID string) (m contracts.Mapping, ok bool) {
	e.read(func() { m, ok = e.controls.Mapping(controlID) })
	return m, ok
}

// Mappings returns every binding in insertion order.
func (e *Engine) Mappings() (ms []contracts.Mapping) {
	e.read(func() { ms = e.controls.Mappings() })
	return ms
}

func (e *Engine) LearningState() (st contracts.LearningState) {
	e.read(func() { st = e.controls.Learning() })
	return st
}

// Controls returns the current control snapshot.
func (e *Engine) Controls() (s contracts.ControlSnapshot) {
	e.read(func() { s = e.controls.Snapshot() })
	return s
}

// ControlUpdates returns how many control state writes have been applied.
func (e *Engine) ControlUpdates() (n int) {
	e.read(func() { n = e.controls.Updates() })
	return n
}

// Messages returns the current message monitor snapshot.
func (e *Engine) Messages() (s contracts.QueueSnapshot) {
	e.read(func() { s = e.queue.Snapshot() })
	return s
}

// LatestMessage returns the latest message seen for the key.
func (e *Engine) LatestMessage(t contracts.MessageType, channel, primaryID int) (msg contracts.NormalizedMessage, ok bool) {
	e.read(func() { msg, ok = e.queue.Latest(t, channel, primaryID) })
	return msg, ok
}

// RecentActivity returns up to limit recent messages, newest first.
func (e *Engine) RecentActivity(limit int) (msgs []contracts.NormalizedMessage) {
	e.read(func() { msgs = e.queue.Recent(limit) })
	return msgs
}

// MessagesByType returns the latest message of every key of type t.
func (e *Engine) MessagesByType(t contracts.MessageType) (msgs []contracts.NormalizedMessage) {
	e.read(func() { msgs = e.queue.ByType(t) })
	return msgs
}

// MessagesByChannel returns the latest message of every key on channel.
func (e *Engine) MessagesByChannel(channel int) (msgs []contracts.NormalizedMessage) {
	e.read(func() { msgs = e.queue.ByChannel(channel) })
	return msgs
}

// Close stops pending timers. Later mutating calls return ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.throttle.Reset()
	e.queue.Close()
	e.controls.Close()
	e.outbox = nil
	e.logger.Debug("engine closed")
	return nil
}
