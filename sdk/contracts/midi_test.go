package contracts

import (
	"reflect"
	"testing"
	"time"
)

func TestRawEventsFromBytes(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ev := func(status, d1, d2 byte) RawEvent {
		return RawEvent{Status: status, Data1: d1, Data2: d2, ReceivedAt: at}
	}

	cases := []struct {
		name string
		in   []byte
		want []RawEvent
	}{
		{"single cc", []byte{0xB0, 7, 10}, []RawEvent{ev(0xB0, 7, 10)}},
		{"packed fader burst", []byte{0xB0, 7, 10, 0xB0, 7, 20}, []RawEvent{ev(0xB0, 7, 10), ev(0xB0, 7, 20)}},
		{"running status", []byte{0xB1, 7, 10, 7, 11, 7, 12}, []RawEvent{ev(0xB1, 7, 10), ev(0xB1, 7, 11), ev(0xB1, 7, 12)}},
		{"two byte messages", []byte{0xC2, 5, 0xD3, 90, 0x90, 60, 100}, []RawEvent{ev(0xC2, 5, 0), ev(0xD3, 90, 0), ev(0x90, 60, 100)}},
		{"real-time inside a message", []byte{0xB0, 7, 0xF8, 30}, []RawEvent{ev(0xB0, 7, 30)}},
		{"sysex skipped", []byte{0xF0, 0x7E, 0x01, 0xF7, 0x80, 60, 0}, []RawEvent{ev(0x80, 60, 0)}},
		{"system common clears running status", []byte{0xB0, 1, 2, 0xF2, 0x10, 0x20, 3, 4}, []RawEvent{ev(0xB0, 1, 2)}},
		{"truncated tail dropped", []byte{0xB0, 7, 10, 0xB0, 7}, []RawEvent{ev(0xB0, 7, 10)}},
		{"orphan data bytes", []byte{7, 10}, nil},
		{"empty", nil, nil},
	}
	for _, c := range cases {
		got := RawEventsFromBytes(c.in, at)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: got %+v; want %+v", c.name, got, c.want)
		}
	}
}

func TestRawEventFromBytes_ZeroFills(t *testing.T) {
	got := RawEventFromBytes([]byte{0xC0, 12}, time.Time{})
	if got.Status != 0xC0 || got.Data1 != 12 || got.Data2 != 0 {
		t.Fatalf("got %+v", got)
	}
}
