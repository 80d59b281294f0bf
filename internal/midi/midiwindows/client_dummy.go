//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

type dummyTransport struct {
	logger contracts.Logger
}

// NewTransport returns a transport that reports winmm as unavailable.
func NewTransport(options *contracts.Options) (contracts.Transport, error) {
	options.Logger.Debug("winmm is not available on this platform")
	return &dummyTransport{logger: options.Logger}, nil
}

// ListDevices reports that winmm is unavailable.
func (m *dummyTransport) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy winmm transport")
	return nil, fmt.Errorf("%w: winmm requires Windows", contracts.ErrUnsupportedDriver)
}

// SelectDevice reports that winmm is unavailable.
func (m *dummyTransport) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy winmm transport")
	return fmt.Errorf("%w: winmm requires Windows", contracts.ErrUnsupportedDriver)
}

func (m *dummyTransport) StartCapture(eventChannel chan contracts.RawEvent) {
	m.logger.Warn("StartCapture called on dummy winmm transport")
}

func (m *dummyTransport) Stop() error {
	return nil
}
