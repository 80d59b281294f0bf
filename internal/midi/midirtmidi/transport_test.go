//go:build !rtmidi

package midirtmidi

import (
	"errors"
	"testing"
	"time"

	"github.com/akisma/pioneer-vision/internal/logger"
	"github.com/akisma/pioneer-vision/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/testdrv"
)

func TestTransport_CaptureThroughDriver(t *testing.T) {
	tr, err := NewTransport(&contracts.Options{Logger: logger.NewNopLogger()})
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	devices, err := tr.ListDevices()
	if err != nil || len(devices) != 1 || devices[0].Name != "testdrv-in" {
		t.Fatalf("devices=%+v err=%v", devices, err)
	}
	if err := tr.SelectDevice(3); !errors.Is(err, contracts.ErrInvalidMIDIDevice) {
		t.Fatalf("err=%v, want ErrInvalidMIDIDevice", err)
	}
	if err := tr.SelectDevice(0); err != nil {
		t.Fatalf("SelectDevice: %v", err)
	}

	events := make(chan contracts.RawEvent, 4)
	tr.StartCapture(events)

	out, err := midi.OutPort(0)
	if err != nil {
		t.Fatalf("OutPort: %v", err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		t.Fatalf("SendTo: %v", err)
	}
	if err := send(midi.ControlChange(2, 7, 100)); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Status != 0xB2 || ev.Data1 != 7 || ev.Data2 != 100 || ev.ReceivedAt.IsZero() {
			t.Fatalf("event=%+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}

	if err := tr.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := tr.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
