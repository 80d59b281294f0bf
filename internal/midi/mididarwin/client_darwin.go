//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akisma/pioneer-vision/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrEmptyMIDIPacket     = errors.New("empty MIDI packet")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Transport reads MIDI input through CoreMIDI on macOS.
type Transport struct {
	logger       contracts.Logger
	eventChannel atomic.Value // chan contracts.RawEvent
	client       coremidi.Client
	inputPort    coremidi.InputPort
	hasPort      bool
	portConn     internalPortConnection
	mu           sync.Mutex
	capturing    bool

	// deliver is read-locked by packet handlers; Stop takes the write lock
	// so no handler is still sending once it returns.
	deliver sync.RWMutex
}

// NewTransport creates a CoreMIDI client named after options.CoreMIDIConfig.
func NewTransport(options *contracts.Options) (contracts.Transport, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	return &Transport{
		logger: options.Logger,
		client: client,
	}, nil
}

// ListDevices returns the CoreMIDI sources.
func (m *Transport) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to the source at index deviceID, dropping any
// previous connection.
func (m *Transport) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(contracts.ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return fmt.Errorf("%w: %s", contracts.ErrInvalidMIDIDevice, strconv.Itoa(deviceID))
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	// CoreMIDI input ports cannot be disposed through go-coremidi; create one
	// and reconnect it to each selected source.
	if !m.hasPort {
		m.inputPort, err = coremidi.NewInputPort(m.client, "Input Port", m.handlePacket)
		if err != nil {
			m.logger.Error(ErrCreateInputPort.Error(), m.logger.Field().Error("error", err))
			return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
		}
		m.hasPort = true
	}

	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device successfully connected")
	return nil
}

// handlePacket forwards every message packed in a CoreMIDI packet as its own
// RawEvent; filtering happens in the engine.
func (m *Transport) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	m.deliver.RLock()
	defer m.deliver.RUnlock()

	eventChannel, _ := m.eventChannel.Load().(chan contracts.RawEvent)
	if eventChannel == nil {
		return
	}
	if len(packet.Data) == 0 {
		m.logger.Warn(ErrEmptyMIDIPacket.Error())
		return
	}

	for _, event := range contracts.RawEventsFromBytes(packet.Data, time.Now()) {
		select {
		case eventChannel <- event:
		default:
			m.logger.Warn("event buffer full; dropping MIDI event")
		}
	}
}

// StartCapture starts delivering events to eventChannel.
func (m *Transport) StartCapture(eventChannel chan contracts.RawEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.capturing {
		m.logger.Warn("capture already started; replacing event channel")
	}

	m.logger.Info("starting MIDI event capture")
	m.deliver.Lock()
	m.eventChannel.Store(eventChannel)
	m.deliver.Unlock()
	m.capturing = true
}

// Stop disconnects from the device. No packet is delivered once it returns.
// Calling it again is harmless.
func (m *Transport) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.capturing && m.portConn == nil {
		return nil
	}
	m.capturing = false
	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}
	// A typed nil keeps the atomic.Value type consistent while disabling delivery.
	m.deliver.Lock()
	m.eventChannel.Store((chan contracts.RawEvent)(nil))
	m.deliver.Unlock()

	m.logger.Info("MIDI capture stopped")
	return nil
}
