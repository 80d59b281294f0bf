package midi

import (
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// NewTransport creates the hardware transport selected by the options.
//
// opts ...contracts.Option: A variadic list of option functions; WithDriver
// picks the backend, WithCoreMIDIConfig names the CoreMIDI client.
//
// Returns:
//   - contracts.Transport: the transport, not yet connected to a device.
//   - error: ErrUnsupportedDriver for an unknown driver, or the backend's
//     initialization error.
func NewTransport(opts ...contracts.Option) (contracts.Transport, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return newTransport(&options)
}
