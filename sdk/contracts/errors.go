package contracts

import "errors"

var (
	// ErrInvalidMapping is returned for mapping or learning requests with a
	// missing control id or type, or an out-of-range channel or primary id.
	ErrInvalidMapping = errors.New("invalid mapping request")
	// ErrEngineClosed is returned by engine operations after Close.
	ErrEngineClosed = errors.New("engine closed")
	// ErrNoMIDIDevices is returned when a transport finds no input devices.
	ErrNoMIDIDevices = errors.New("no MIDI devices found")
	// ErrInvalidMIDIDevice is returned when a device index is out of range.
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	// ErrUnsupportedDriver is returned when no transport exists for the requested driver.
	ErrUnsupportedDriver = errors.New("unsupported MIDI driver")
)
