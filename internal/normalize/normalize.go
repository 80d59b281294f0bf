// Package normalize turns raw transport bytes into canonical messages.
package normalize

import "github.com/akisma/pioneer-vision/sdk/contracts"

const dataMask = 0x7F

// Normalize converts a raw event into a NormalizedMessage. It is total and
// pure: every status byte is classified (system and running-status bytes
// become UnknownMessage) and out-of-range data bytes are clamped to 127.
func Normalize(raw contracts.RawEvent) contracts.NormalizedMessage {
	typ := Classify(raw.Status)
	msg := contracts.NormalizedMessage{
		Type:      typ,
		Channel:   Channel(raw.Status),
		PrimaryID: clamp(raw.Data1),
		Value:     clamp(raw.Data2),
		Raw:       [3]byte{raw.Status, raw.Data1, raw.Data2},
		Timestamp: raw.ReceivedAt,
	}
	// Two-byte messages carry no second data byte.
	if typ == contracts.ProgramChange || typ == contracts.ChannelPressure {
		msg.Value = 0
	}
	return msg
}

// Classify maps the high nibble of status to a MessageType.
func Classify(status byte) contracts.MessageType {
	switch t := contracts.MessageType(status & 0xF0); t {
	case contracts.NoteOff,
		contracts.NoteOn,
		contracts.Aftertouch,
		contracts.ControlChange,
		contracts.ProgramChange,
		contracts.ChannelPressure,
		contracts.PitchBend:
		return t
	default:
		return contracts.UnknownMessage
	}
}

// Channel returns the 1-based channel encoded in the low nibble of status.
func Channel(status byte) int {
	return int(status&0x0F) + 1
}

func clamp(b byte) int {
	if b > dataMask {
		return dataMask
	}
	return int(b)
}
