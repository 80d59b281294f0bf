// Package midirtmidi reads MIDI input through gomidi's registered driver.
// Build with -tags rtmidi to register the cgo rtmidi driver.
package midirtmidi

import (
	"fmt"
	"sync"
	"time"

	"github.com/akisma/pioneer-vision/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Transport adapts a gomidi input port to contracts.Transport.
type Transport struct {
	logger contracts.Logger

	mu     sync.Mutex
	in     drivers.In
	stopFn func()
}

// NewTransport fails with ErrUnsupportedDriver when no gomidi driver is registered.
func NewTransport(options *contracts.Options) (contracts.Transport, error) {
	if drivers.Get() == nil {
		return nil, fmt.Errorf("%w: rtmidi (build with -tags rtmidi)", contracts.ErrUnsupportedDriver)
	}
	options.Logger.Info("gomidi transport created", options.Logger.Field().String("driver", drivers.Get().String()))
	return &Transport{logger: options.Logger}, nil
}

func (t *Transport) ListDevices() ([]contracts.DeviceInfo, error) {
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		t.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{ID: i, Name: in.String(), EntityName: in.String()}
	}
	return devices, nil
}

// SelectDevice opens the input port at index deviceID, closing any port
// opened before.
func (t *Transport) SelectDevice(deviceID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ins := midi.GetInPorts()
	if deviceID < 0 || deviceID >= len(ins) {
		t.logger.Error(contracts.ErrInvalidMIDIDevice.Error(), t.logger.Field().Int("deviceID", deviceID))
		return fmt.Errorf("%w: %d", contracts.ErrInvalidMIDIDevice, deviceID)
	}
	t.closeLocked()

	in := ins[deviceID]
	if err := in.Open(); err != nil {
		return fmt.Errorf("open %q: %w", in.String(), err)
	}
	t.in = in
	t.logger.Info("MIDI device selected",
		t.logger.Field().Int("deviceID", deviceID),
		t.logger.Field().String("deviceName", in.String()))
	return nil
}

// StartCapture listens on the selected port and forwards each message.
func (t *Transport) StartCapture(eventChannel chan contracts.RawEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.in == nil {
		t.logger.Error("cannot start capture: no MIDI device selected")
		return
	}
	if t.stopFn != nil {
		t.stopFn()
		t.stopFn = nil
	}

	stop, err := midi.ListenTo(t.in, func(msg midi.Message, _ int32) {
		select {
		case eventChannel <- contracts.RawEventFromBytes(msg, time.Now()):
		default:
			t.logger.Warn("event buffer full; dropping MIDI event")
		}
	}, midi.HandleError(func(err error) {
		t.logger.Warn("MIDI listener error", t.logger.Field().Error("error", err))
	}))
	if err != nil {
		t.logger.Error("failed to start MIDI capture", t.logger.Field().Error("error", err))
		return
	}
	t.stopFn = stop
	t.logger.Info("MIDI capture started")
}

func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked()
}

func (t *Transport) closeLocked() error {
	if t.stopFn != nil {
		t.stopFn()
		t.stopFn = nil
	}
	if t.in == nil {
		return nil
	}
	err := t.in.Close()
	t.in = nil
	return err
}
