// Package learning implements the state machine that binds the next physical
// event to a chosen virtual control.
package learning

import (
	"github.com/akisma/pioneer-vision/internal/mapping"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// Machine is either idle or learning one control.
type Machine struct {
	state contracts.LearningState
}

// New returns an idle machine.
func New() *Machine {
	return &Machine{}
}

// Start enters learning for controlID, replacing any session in progress.
// Control types other than slider and button are accepted.
func (m *Machine) Start(controlType contracts.ControlType, controlID string) error {
	if err := mapping.Validate(contracts.Mapping{ControlID: controlID, ControlType: controlType}); err != nil {
		return err
	}
	m.state = contracts.LearningState{Active: true, ControlType: controlType, ControlID: controlID}
	return nil
}

// Stop cancels learning. It reports whether a session was active.
func (m *Machine) Stop() bool {
	was := m.state.Active
	m.state = contracts.LearningState{}
	return was
}

func (m *Machine) Active() bool {
	return m.state.Active
}

func (m *Machine) State() contracts.LearningState {
	return m.state
}

// Qualifies reports whether msg can complete a session. Releases and
// non channel-voice messages never do.
func Qualifies(msg contracts.NormalizedMessage) bool {
	switch msg.Type {
	case contracts.UnknownMessage, contracts.NoteOff:
		return false
	case contracts.NoteOn:
		return msg.Value > 0
	}
	return true
}

// Result describes a completed session.
type Result struct {
	Mapping contracts.Mapping
	Removed []string // control ids whose conflicting mappings were deleted
}

// Capture completes the session from msg: conflicting mappings of other
// controls are removed from table, the learned mapping is stored, and the
// machine returns to idle. ok is false when the machine is idle or msg does
// not qualify; the table is then untouched.
func (m *Machine) Capture(msg contracts.NormalizedMessage, table *mapping.Table) (res Result, ok bool, err error) {
	if !m.state.Active || !Qualifies(msg) {
		return Result{}, false, nil
	}
	learned := contracts.Mapping{
		ControlID:   m.state.ControlID,
		ControlType: m.state.ControlType,
		MessageType: msg.Type,
		Channel:     msg.Channel,
		PrimaryID:   msg.PrimaryID,
	}
	if err := mapping.Validate(learned); err != nil {
		m.state = contracts.LearningState{}
		return Result{}, false, err
	}
	res.Removed = table.Conflicts(learned, learned.ControlID)
	for _, id := range res.Removed {
		table.Delete(id)
	}
	if _, err := table.Set(learned); err != nil {
		m.state = contracts.LearningState{}
		return Result{}, false, err
	}
	res.Mapping = learned
	m.state = contracts.LearningState{}
	return res, true, nil
}
