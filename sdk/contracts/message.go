package contracts

import (
	"fmt"
	"strings"
	"time"
)

// MessageType classifies a channel message by the high nibble of its status byte.
type MessageType byte

const (
	UnknownMessage  MessageType = 0x00 // Anything that is not a channel voice message.
	NoteOff         MessageType = 0x80
	NoteOn          MessageType = 0x90
	Aftertouch      MessageType = 0xA0 // Polyphonic key pressure.
	ControlChange   MessageType = 0xB0
	ProgramChange   MessageType = 0xC0
	ChannelPressure MessageType = 0xD0
	PitchBend       MessageType = 0xE0
)

// String returns the identifier used in logs and configuration files.
func (t MessageType) String() string {
	switch t {
	case NoteOff:
		return "noteOff"
	case NoteOn:
		return "noteOn"
	case Aftertouch:
		return "aftertouch"
	case ControlChange:
		return "controlChange"
	case ProgramChange:
		return "programChange"
	case ChannelPressure:
		return "channelPressure"
	case PitchBend:
		return "pitchBend"
	default:
		return "unknown"
	}
}

// Label returns the human readable name shown by monitors.
func (t MessageType) Label() string {
	switch t {
	case NoteOff:
		return "Note Off"
	case NoteOn:
		return "Note On"
	case Aftertouch:
		return "Aftertouch"
	case ControlChange:
		return "Control Change"
	case ProgramChange:
		return "Program Change"
	case ChannelPressure:
		return "Channel Pressure"
	case PitchBend:
		return "Pitch Bend"
	default:
		return "Unknown"
	}
}

// Family folds note-off into note-on. A key press and its release address the
// same physical control, so matching and conflict checks compare families.
func (t MessageType) Family() MessageType {
	if t == NoteOff {
		return NoteOn
	}
	return t
}

// Continuous reports whether the type carries a continuously varying value
// that may be coalesced by the throttling stage.
func (t MessageType) Continuous() bool {
	return t == ControlChange
}

// ParseMessageType accepts the String form ("controlChange") as well as the
// short aliases "cc", "note" and "pb". Matching is case-insensitive.
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noteoff":
		return NoteOff, nil
	case "noteon", "note":
		return NoteOn, nil
	case "aftertouch":
		return Aftertouch, nil
	case "controlchange", "cc":
		return ControlChange, nil
	case "programchange", "pc":
		return ProgramChange, nil
	case "channelpressure":
		return ChannelPressure, nil
	case "pitchbend", "pb":
		return PitchBend, nil
	}
	return UnknownMessage, fmt.Errorf("unknown message type %q", s)
}

// ControlKey is the deduplication and routing unit of the engine.
type ControlKey struct {
	Type      MessageType
	Channel   int
	PrimaryID int
}

func (k ControlKey) String() string {
	return fmt.Sprintf("%s-ch%d-%d", k.Type, k.Channel, k.PrimaryID)
}

// NormalizedMessage is the canonical, immutable form of a RawEvent.
type NormalizedMessage struct {
	Type      MessageType
	Channel   int // 1..16
	PrimaryID int // CC number or note number, 0..127
	Value     int // 0..127
	Raw       [3]byte
	Timestamp time.Time
}

// Key returns the ControlKey the message is stored and matched under.
func (m NormalizedMessage) Key() ControlKey {
	return ControlKey{Type: m.Type, Channel: m.Channel, PrimaryID: m.PrimaryID}
}

func (m NormalizedMessage) String() string {
	return fmt.Sprintf("%s ch%d id%d val%d", m.Type.Label(), m.Channel, m.PrimaryID, m.Value)
}
