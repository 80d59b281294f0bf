// Package control applies mapped messages to virtual control state and runs
// the learning workflow.
package control

import (
	"math"
	"time"

	"github.com/akisma/pioneer-vision/internal/learning"
	"github.com/akisma/pioneer-vision/internal/mapping"
	"github.com/akisma/pioneer-vision/internal/notify"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// Manager owns the mapping table, the learning machine and the computed
// control state. It is not safe for concurrent use; the engine serializes
// access.
type Manager struct {
	logger contracts.Logger
	sched  contracts.Scheduler

	table   *mapping.Table
	learn   *learning.Machine
	sliders map[string]contracts.SliderState
	buttons map[string]contracts.ButtonState

	connected bool
	device    contracts.DeviceInfo
	updates   int

	hub   *notify.Hub[contracts.ControlSnapshot]
	batch *notify.Batcher
}

// New creates a manager notifying subscribers at most once per notifyInterval.
func New(logger contracts.Logger, sched contracts.Scheduler, notifyInterval time.Duration) *Manager {
	m := &Manager{
		logger:  logger,
		sched:   sched,
		table:   mapping.NewTable(),
		learn:   learning.New(),
		sliders: make(map[string]contracts.SliderState),
		buttons: make(map[string]contracts.ButtonState),
		hub:     notify.NewHub[contracts.ControlSnapshot]("controls", logger),
	}
	m.batch = notify.NewBatcher(sched, notifyInterval, func() { m.hub.Publish(m.Snapshot()) })
	return m
}

// SetDispatcher routes subscriber deliveries through d.
func (m *Manager) SetDispatcher(d notify.Dispatcher) {
	m.hub.SetDispatcher(d)
}

// Subscribe registers fn for control snapshots.
func (m *Manager) Subscribe(fn func(contracts.ControlSnapshot)) (unsubscribe func()) {
	return m.hub.Subscribe(fn)
}

// ProcessBatch processes msgs in order.
func (m *Manager) ProcessBatch(msgs []contracts.NormalizedMessage) {
	for _, msg := range msgs {
		m.Process(msg)
	}
}

// Process routes msg to the learning machine when a session is open and the
// message can complete it; otherwise it updates every control whose mapping
// matches, in table order.
func (m *Manager) Process(msg contracts.NormalizedMessage) {
	if m.learn.Active() && learning.Qualifies(msg) {
		m.complete(msg)
		return
	}
	for _, mp := range m.table.Match(msg) {
		m.apply(mp, msg)
	}
}

func (m *Manager) complete(msg contracts.NormalizedMessage) {
	res, ok, err := m.learn.Capture(msg, m.table)
	if err != nil {
		m.logger.Warn("learning aborted", m.logger.Field().Error("error", err))
		m.batch.Request()
		return
	}
	if !ok {
		return
	}
	for _, id := range res.Removed {
		m.logger.Info("removed conflicting mapping",
			m.logger.Field().String("control", id),
			m.logger.Field().String("rule", res.Mapping.String()))
	}
	m.ensureState(res.Mapping)
	m.logger.Info("learned mapping",
		m.logger.Field().String("control", res.Mapping.ControlID),
		m.logger.Field().String("type", string(res.Mapping.ControlType)),
		m.logger.Field().String("rule", res.Mapping.String()))
	m.batch.Request()
}

func (m *Manager) apply(mp contracts.Mapping, msg contracts.NormalizedMessage) {
	at := msg.Timestamp
	if at.IsZero() {
		at = m.sched.Now()
	}
	switch mp.ControlType {
	case contracts.Slider:
		m.sliders[mp.ControlID] = contracts.SliderState{
			Value:       SliderValue(msg.Value),
			RawValue:    msg.Value,
			LastUpdated: at,
		}
	case contracts.Button:
		m.buttons[mp.ControlID] = contracts.ButtonState{
			IsPressed:   Pressed(msg),
			LastValue:   msg.Value,
			LastUpdated: at,
		}
	default:
		m.logger.Debug("ignoring match for unsupported control type",
			m.logger.Field().String("control", mp.ControlID),
			m.logger.Field().String("type", string(mp.ControlType)))
		return
	}
	m.updates++
	m.batch.Request()
}

// SliderValue converts a 7-bit value to a percentage.
func SliderValue(raw int) int {
	v := int(math.Round(float64(raw) / 127 * 100))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Pressed reports the button state msg implies. Control changes press at 64
// and above, note-ons with a non-zero velocity, note-offs always release.
func Pressed(msg contracts.NormalizedMessage) bool {
	switch msg.Type {
	case contracts.ControlChange:
		return msg.Value >= 64
	case contracts.NoteOn:
		return msg.Value > 0
	case contracts.NoteOff:
		return false
	default:
		return msg.Value > 0
	}
}

func (m *Manager) ensureState(mp contracts.Mapping) {
	switch mp.ControlType {
	case contracts.Slider:
		if _, ok := m.sliders[mp.ControlID]; !ok {
			m.sliders[mp.ControlID] = contracts.SliderState{}
		}
	case contracts.Button:
		if _, ok := m.buttons[mp.ControlID]; !ok {
			m.buttons[mp.ControlID] = contracts.ButtonState{}
		}
	}
}

// MapControl inserts or replaces the mapping of mp.ControlID and creates a
// zeroed state for the control if it has none.
func (m *Manager) MapControl(mp contracts.Mapping) error {
	replaced, err := m.table.Set(mp)
	if err != nil {
		m.logger.Warn("rejected mapping", m.logger.Field().Error("error", err))
		return err
	}
	m.ensureState(mp)
	m.logger.Debug("mapped control",
		m.logger.Field().String("control", mp.ControlID),
		m.logger.Field().String("rule", mp.String()),
		m.logger.Field().Bool("replaced", replaced))
	m.batch.Request()
	return nil
}

// UnmapControl removes the mapping of controlID. The control keeps its last
// state.
func (m *Manager) UnmapControl(controlID string) bool {
	if !m.table.Delete(controlID) {
		return false
	}
	m.batch.Request()
	return true
}

// StartLearning opens a learning session for the control, replacing any
// session in progress.
func (m *Manager) StartLearning(controlType contracts.ControlType, controlID string) error {
	if err := m.learn.Start(controlType, controlID); err != nil {
		m.logger.Warn("rejected learning request", m.logger.Field().Error("error", err))
		return err
	}
	m.logger.Debug("learning started",
		m.logger.Field().String("control", controlID),
		m.logger.Field().String("type", string(controlType)))
	m.batch.Request()
	return nil
}

// StopLearning cancels the session. Calling it while idle does nothing.
func (m *Manager) StopLearning() bool {
	if !m.learn.Stop() {
		return false
	}
	m.logger.Debug("learning cancelled")
	m.batch.Request()
	return true
}

// Clear drops every mapping, control state and the update count, and
// cancels learning.
func (m *Manager) Clear() {
	m.table.Clear()
	m.learn.Stop()
	m.sliders = make(map[string]contracts.SliderState)
	m.buttons = make(map[string]contracts.ButtonState)
	m.updates = 0
	m.batch.Request()
}

// SetDevice records a connected device.
func (m *Manager) SetDevice(info contracts.DeviceInfo) {
	m.connected = true
	m.device = info
	m.batch.Request()
}

// Disconnect releases every pressed button, since their release messages
// can no longer arrive, and records the disconnection.
func (m *Manager) Disconnect() {
	now := m.sched.Now()
	for id, st := range m.buttons {
		if st.IsPressed {
			st.IsPressed = false
			st.LastUpdated = now
			m.buttons[id] = st
		}
	}
	m.connected = false
	m.device = contracts.DeviceInfo{}
	m.batch.Request()
}

// Slider returns the state of a slider.
func (m *Manager) Slider(controlID string) (contracts.SliderState, bool) {
	s, ok := m.sliders[controlID]
	return s, ok
}

// Button returns the state of a button.
func (m *Manager) Button(controlID string) (contracts.ButtonState, bool) {
	b, ok := m.buttons[controlID]
	return b, ok
}

// Mapping returns the mapping of controlID.
func (m *Manager) Mapping(controlID string) (contracts.Mapping, bool) {
	return m.table.Get(controlID)
}

// Mappings returns the mapping table in insertion order.
func (m *Manager) Mappings() []contracts.Mapping {
	return m.table.All()
}

func (m *Manager) Learning() contracts.LearningState {
	return m.learn.State()
}

// Updates returns how many control state writes have been applied.
func (m *Manager) Updates() int {
	return m.updates
}

// Snapshot returns a copy of the control state.
func (m *Manager) Snapshot() contracts.ControlSnapshot {
	s := contracts.ControlSnapshot{
		Sliders:   make(map[string]contracts.SliderState, len(m.sliders)),
		Buttons:   make(map[string]contracts.ButtonState, len(m.buttons)),
		Mappings:  m.table.All(),
		Learning:  m.learn.State(),
		Connected: m.connected,
		Device:    m.device,
	}
	for k, v := range m.sliders {
		s.Sliders[k] = v
	}
	for k, v := range m.buttons {
		s.Buttons[k] = v
	}
	return s
}

// Close cancels a pending notification.
func (m *Manager) Close() {
	m.batch.Cancel()
}
