//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

type dummyTransport struct {
	logger contracts.Logger
}

// NewTransport returns a transport that reports CoreMIDI as unavailable.
func NewTransport(options *contracts.Options) (contracts.Transport, error) {
	options.Logger.Debug("CoreMIDI is not available on this platform")
	return &dummyTransport{logger: options.Logger}, nil
}

func (m *dummyTransport) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy CoreMIDI transport")
	return nil, fmt.Errorf("%w: coremidi requires macOS", contracts.ErrUnsupportedDriver)
}

func (m *dummyTransport) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy CoreMIDI transport")
	return fmt.Errorf("%w: coremidi requires macOS", contracts.ErrUnsupportedDriver)
}

func (m *dummyTransport) StartCapture(eventChannel chan contracts.RawEvent) {
	m.logger.Warn("StartCapture called on dummy CoreMIDI transport")
}

func (m *dummyTransport) Stop() error {
	return nil
}
