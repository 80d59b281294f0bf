package midi

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/akisma/pioneer-vision/internal/midi/mididarwin"
	"github.com/akisma/pioneer-vision/internal/midi/midirtmidi"
	"github.com/akisma/pioneer-vision/internal/midi/midiwindows"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// Transport driver names accepted by contracts.WithDriver.
const (
	DriverCoreMIDI = "coremidi"
	DriverWinMM    = "winmm"
	DriverRtMIDI   = "rtmidi"
)

// transportInitializers maps driver names to transport constructors.
var transportInitializers = map[string]func(*contracts.Options) (contracts.Transport, error){
	DriverCoreMIDI: mididarwin.NewTransport,
	DriverWinMM:    midiwindows.NewTransport,
	DriverRtMIDI:   midirtmidi.NewTransport,
}

// defaultDrivers picks the native driver per operating system.
var defaultDrivers = map[string]string{
	"darwin":  DriverCoreMIDI,
	"windows": DriverWinMM,
}

// Drivers lists the known driver names.
func Drivers() []string {
	names := make([]string, 0, len(transportInitializers))
	for name := range transportInitializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultDriver returns the driver used when none is configured.
func DefaultDriver() string {
	if d, ok := defaultDrivers[runtime.GOOS]; ok {
		return d
	}
	return DriverRtMIDI
}

// newTransport initializes the transport named by opts.Driver, or the
// platform default.
func newTransport(opts *contracts.Options) (contracts.Transport, error) {
	name := strings.ToLower(opts.Driver)
	if name == "" {
		name = DefaultDriver()
	}
	if initializer, exists := transportInitializers[name]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %q (known: %s)", contracts.ErrUnsupportedDriver, opts.Driver, strings.Join(Drivers(), ", "))
}
