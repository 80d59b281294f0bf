package learning

import (
	"errors"
	"testing"

	"github.com/akisma/pioneer-vision/internal/mapping"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

func ccMsg(channel, id, value int) contracts.NormalizedMessage {
	return contracts.NormalizedMessage{Type: contracts.ControlChange, Channel: channel, PrimaryID: id, Value: value}
}

func TestMachine_RoundTrip(t *testing.T) {
	m := New()
	tbl := mapping.NewTable()

	if err := m.Start(contracts.Slider, "lVolume"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st := m.State(); !st.Active || st.ControlID != "lVolume" || st.ControlType != contracts.Slider {
		t.Fatalf("state=%+v", st)
	}

	res, ok, err := m.Capture(ccMsg(1, 7, 64), tbl)
	if err != nil || !ok {
		t.Fatalf("Capture: ok=%v err=%v", ok, err)
	}
	want := contracts.Mapping{ControlID: "lVolume", ControlType: contracts.Slider, MessageType: contracts.ControlChange, Channel: 1, PrimaryID: 7}
	if res.Mapping != want {
		t.Fatalf("mapping=%+v, want %+v", res.Mapping, want)
	}
	if got, _ := tbl.Get("lVolume"); got != want {
		t.Fatalf("table entry=%+v", got)
	}
	if m.State() != (contracts.LearningState{}) {
		t.Fatalf("machine not idle after capture: %+v", m.State())
	}
}

func TestMachine_ConflictingMappingRemoved(t *testing.T) {
	m := New()
	tbl := mapping.NewTable()
	tbl.Set(contracts.Mapping{ControlID: "A", ControlType: contracts.Slider, MessageType: contracts.ControlChange, Channel: 1, PrimaryID: 7})
	tbl.Set(contracts.Mapping{ControlID: "C", ControlType: contracts.Slider, MessageType: contracts.ControlChange, Channel: 2, PrimaryID: 7})

	m.Start(contracts.Slider, "B")
	res, ok, _ := m.Capture(ccMsg(1, 7, 10), tbl)
	if !ok {
		t.Fatalf("capture failed")
	}
	if len(res.Removed) != 1 || res.Removed[0] != "A" {
		t.Fatalf("removed=%v, want [A]", res.Removed)
	}
	if _, ok := tbl.Get("A"); ok {
		t.Fatalf("conflicting mapping A survived")
	}
	if _, ok := tbl.Get("C"); !ok {
		t.Fatalf("mapping on another channel was removed")
	}
	if b, _ := tbl.Get("B"); b.Channel != 1 || b.PrimaryID != 7 {
		t.Fatalf("B=%+v", b)
	}
}

func TestMachine_RelearnSameControlKeepsSingleEntry(t *testing.T) {
	m := New()
	tbl := mapping.NewTable()

	m.Start(contracts.Button, "fx1")
	m.Capture(contracts.NormalizedMessage{Type: contracts.NoteOn, Channel: 10, PrimaryID: 36, Value: 90}, tbl)
	m.Start(contracts.Button, "fx1")
	res, _, _ := m.Capture(contracts.NormalizedMessage{Type: contracts.NoteOn, Channel: 10, PrimaryID: 36, Value: 90}, tbl)

	if len(res.Removed) != 0 {
		t.Fatalf("re-learning the same key removed %v", res.Removed)
	}
	if tbl.Len() != 1 {
		t.Fatalf("len=%d, want 1", tbl.Len())
	}
}

func TestMachine_ReleasesDoNotQualify(t *testing.T) {
	m := New()
	tbl := mapping.NewTable()
	m.Start(contracts.Button, "fx2")

	for _, msg := range []contracts.NormalizedMessage{
		{Type: contracts.NoteOff, Channel: 1, PrimaryID: 60},
		{Type: contracts.NoteOn, Channel: 1, PrimaryID: 60, Value: 0},
		{Type: contracts.UnknownMessage},
	} {
		if _, ok, _ := m.Capture(msg, tbl); ok {
			t.Fatalf("%v completed learning", msg)
		}
	}
	if !m.Active() || tbl.Len() != 0 {
		t.Fatalf("session must stay open: active=%v len=%d", m.Active(), tbl.Len())
	}
}

func TestMachine_LastStartWins(t *testing.T) {
	m := New()
	m.Start(contracts.Slider, "lVolume")
	m.Start(contracts.Button, "fx1")
	if st := m.State(); st.ControlID != "fx1" || st.ControlType != contracts.Button {
		t.Fatalf("state=%+v", st)
	}
}

func TestMachine_StopIsSafeWhenIdle(t *testing.T) {
	m := New()
	if m.Stop() {
		t.Fatalf("Stop on idle machine reported an active session")
	}
	m.Start(contracts.Slider, "x")
	if !m.Stop() || m.Active() {
		t.Fatalf("Stop did not cancel the session")
	}
	if _, ok, _ := m.Capture(ccMsg(1, 1, 1), mapping.NewTable()); ok {
		t.Fatalf("idle machine captured a message")
	}
}

func TestMachine_StartRejectsMissingFields(t *testing.T) {
	m := New()
	m.Start(contracts.Slider, "keep")

	if err := m.Start("", "x"); !errors.Is(err, contracts.ErrInvalidMapping) {
		t.Fatalf("missing type: err=%v", err)
	}
	if err := m.Start(contracts.Slider, ""); !errors.Is(err, contracts.ErrInvalidMapping) {
		t.Fatalf("missing id: err=%v", err)
	}
	if st := m.State(); st.ControlID != "keep" {
		t.Fatalf("rejected Start changed state: %+v", st)
	}
}
