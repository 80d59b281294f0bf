//go:build rtmidi
// +build rtmidi

package midirtmidi

import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the rtmidi driver
