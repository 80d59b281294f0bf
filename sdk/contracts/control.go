package contracts

import (
	"fmt"
	"time"
)

// ControlType names the kind of virtual control a mapping drives.
// The engine interprets Slider and Button; other values are stored but never applied.
type ControlType string

const (
	Slider ControlType = "slider"
	Button ControlType = "button"
)

// AnyChannel is the wildcard channel of a Mapping.
const AnyChannel = 0

// Mapping binds a virtual control to a physical message pattern.
type Mapping struct {
	ControlID   string
	ControlType ControlType
	MessageType MessageType
	Channel     int // 1..16, or AnyChannel
	PrimaryID   int // 0..127
}

// Wildcard reports whether the mapping accepts any channel.
func (m Mapping) Wildcard() bool {
	return m.Channel == AnyChannel
}

// String renders the matching rule the way control panels label it, e.g. "CC7 Ch1".
func (m Mapping) String() string {
	channel := fmt.Sprintf("Ch%d", m.Channel)
	if m.Wildcard() {
		channel = "Ch*"
	}
	switch m.MessageType {
	case ControlChange:
		return fmt.Sprintf("CC%d %s", m.PrimaryID, channel)
	case NoteOn, NoteOff:
		return fmt.Sprintf("Note%d %s", m.PrimaryID, channel)
	case Aftertouch:
		return fmt.Sprintf("AT%d %s", m.PrimaryID, channel)
	case ProgramChange:
		return fmt.Sprintf("PC%d %s", m.PrimaryID, channel)
	case ChannelPressure:
		return fmt.Sprintf("CP%d %s", m.PrimaryID, channel)
	case PitchBend:
		return fmt.Sprintf("PB%d %s", m.PrimaryID, channel)
	default:
		return "Unknown"
	}
}

// MappingText returns "Unmapped" for a nil mapping and the rule text otherwise.
func MappingText(m *Mapping) string {
	if m == nil {
		return "Unmapped"
	}
	return m.String()
}

// SliderState is the computed state of a slider.
type SliderState struct {
	Value       int // 0..100
	RawValue    int // 0..127
	LastUpdated time.Time
}

// ButtonState is the computed state of a button.
type ButtonState struct {
	IsPressed   bool
	LastValue   int // 0..127
	LastUpdated time.Time
}

// LearningState describes the learning session. When Active is false the
// other fields are empty.
type LearningState struct {
	Active      bool
	ControlType ControlType
	ControlID   string
}

// ControlSnapshot is the full control state delivered to subscribers.
// Maps and slices are copies owned by the receiver.
type ControlSnapshot struct {
	Sliders   map[string]SliderState
	Buttons   map[string]ButtonState
	Mappings  []Mapping // table insertion order
	Learning  LearningState
	Connected bool
	Device    DeviceInfo
}

// Mapping returns the mapping of controlID, if any.
func (s ControlSnapshot) Mapping(controlID string) (Mapping, bool) {
	for _, m := range s.Mappings {
		if m.ControlID == controlID {
			return m, true
		}
	}
	return Mapping{}, false
}

// MappingsByType groups the mappings by control type and id.
func (s ControlSnapshot) MappingsByType() map[ControlType]map[string]Mapping {
	out := make(map[ControlType]map[string]Mapping)
	for _, m := range s.Mappings {
		if out[m.ControlType] == nil {
			out[m.ControlType] = make(map[string]Mapping)
		}
		out[m.ControlType][m.ControlID] = m
	}
	return out
}

// QueueStats reports message queue activity.
type QueueStats struct {
	MessagesPerSecond   float64
	TotalProcessed      int
	DuplicatesFiltered  int
	TotalLatestMessages int
	RecentActivityCount int
	LastUpdate          time.Time
}

// QueueSnapshot is the full monitor state delivered to subscribers.
type QueueSnapshot struct {
	LatestMessages []NormalizedMessage // first-seen key order
	RecentActivity []NormalizedMessage // newest first
	Stats          QueueStats
}
