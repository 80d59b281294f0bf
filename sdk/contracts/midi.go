package contracts

import "time"

// RawEvent is a single physical MIDI message as delivered by a transport.
// Two-byte messages (program change, channel pressure) leave Data2 at zero.
type RawEvent struct {
	Status     byte      // Status byte: high nibble is the command, low nibble the channel.
	Data1      byte      // Note number, controller number or program.
	Data2      byte      // Velocity or controller value.
	ReceivedAt time.Time // Arrival time; the engine stamps it when zero.
}

// RawEventFromBytes builds a RawEvent from a transport packet, zero-filling
// any missing data bytes. An empty packet yields a zero event.
func RawEventFromBytes(b []byte, at time.Time) RawEvent {
	ev := RawEvent{ReceivedAt: at}
	if len(b) > 0 {
		ev.Status = b[0]
	}
	if len(b) > 1 {
		ev.Data1 = b[1]
	}
	if len(b) > 2 {
		ev.Data2 = b[2]
	}
	return ev
}

// RawEventsFromBytes splits a transport packet that may carry several
// messages. Channel messages are 2 or 3 bytes long by status; running status
// is honoured. System messages and their data bytes are skipped, as are
// messages cut short at the end of the packet.
func RawEventsFromBytes(b []byte, at time.Time) []RawEvent {
	var (
		events  []RawEvent
		running byte
	)
	for i := 0; i < len(b); {
		status := b[i]
		switch {
		case status >= 0xF8:
			// Real-time bytes may appear anywhere, even inside a message.
			i++
			continue
		case status >= 0xF0:
			running = 0
			i = skipSystem(b, i)
			continue
		case status >= 0x80:
			running = status
			i++
		case running == 0:
			i++
			continue
		}

		n := channelDataLen(running)
		data := make([]byte, 0, 2)
		for len(data) < n && i < len(b) {
			if b[i] >= 0xF8 {
				i++
				continue
			}
			if b[i] >= 0x80 {
				break
			}
			data = append(data, b[i])
			i++
		}
		if len(data) < n {
			continue
		}
		ev := RawEvent{Status: running, Data1: data[0], ReceivedAt: at}
		if n == 2 {
			ev.Data2 = data[1]
		}
		events = append(events, ev)
	}
	return events
}

func channelDataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

// skipSystem returns the index just past the system message starting at i.
func skipSystem(b []byte, i int) int {
	if b[i] == 0xF0 {
		for i++; i < len(b); i++ {
			if b[i] == 0xF7 {
				return i + 1
			}
			if b[i] >= 0x80 && b[i] < 0xF8 {
				return i
			}
		}
		return i
	}
	i++
	for i < len(b) && b[i] < 0x80 {
		i++
	}
	return i
}

// Transport is the hardware access collaborator. It enumerates devices,
// connects to one, and delivers every incoming message on a single channel.
type Transport interface {
	Stop() error                            // Stops capturing and releases the device.
	ListDevices() ([]DeviceInfo, error)     // Lists all available MIDI input devices.
	SelectDevice(deviceID int) error        // Connects to the device with the given index.
	StartCapture(eventChannel chan RawEvent) // Starts delivering events to eventChannel.
}
