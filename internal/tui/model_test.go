package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akisma/pioneer-vision/internal/layout"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

type fakeController struct {
	learning []string
	stops    int
	unmapped []string
	cleared  int
	learnErr error
}

func (f *fakeController) StartLearning(t contracts.ControlType, id string) error {
	f.learning = append(f.learning, string(t)+":"+id)
	return f.learnErr
}

func (f *fakeController) StopLearning() error {
	f.stops++
	return nil
}

func (f *fakeController) UnmapControl(id string) (bool, error) {
	f.unmapped = append(f.unmapped, id)
	return true, nil
}

func (f *fakeController) ClearAll() error {
	f.cleared++
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestModel_Keys(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(ctrl, layout.Default(), contracts.ControlSnapshot{})

	m = press(m, "down", "enter")
	if len(ctrl.learning) != 1 || ctrl.learning[0] != "slider:xFader" {
		t.Fatalf("learning=%v", ctrl.learning)
	}

	m = press(m, "esc")
	if ctrl.stops != 1 {
		t.Fatalf("esc must cancel learning, stops=%d", ctrl.stops)
	}

	m = press(m, "down", "down", "down", "down", "u")
	if len(ctrl.unmapped) != 1 || ctrl.unmapped[0] != "fx2" {
		t.Fatalf("unmapped=%v, cursor must stop at the last control", ctrl.unmapped)
	}

	m = press(m, "up", "c")
	if ctrl.cleared != 1 || m.Selected().ID != "fx1" {
		t.Fatalf("cleared=%d selected=%s", ctrl.cleared, m.Selected().ID)
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("q must quit")
	}
}

func TestModel_View(t *testing.T) {
	ctrl := &fakeController{}
	snap := contracts.ControlSnapshot{
		Sliders: map[string]contracts.SliderState{"xFader": {Value: 79, RawValue: 100}},
		Buttons: map[string]contracts.ButtonState{"fx1": {IsPressed: true, LastValue: 127}},
		Mappings: []contracts.Mapping{
			{ControlID: "xFader", ControlType: contracts.Slider, MessageType: contracts.ControlChange, Channel: 1, PrimaryID: 3},
			{ControlID: "fx1", ControlType: contracts.Button, MessageType: contracts.NoteOn, Channel: contracts.AnyChannel, PrimaryID: 60},
		},
		Learning:  contracts.LearningState{Active: true, ControlType: contracts.Slider, ControlID: "lVolume"},
		Connected: true,
		Device:    contracts.DeviceInfo{ID: 1, Name: "DDJ-400", Manufacturer: "Pioneer"},
	}
	m := NewModel(ctrl, layout.Default(), contracts.ControlSnapshot{})
	next, _ := m.Update(ControlsMsg(snap))
	m = next.(Model)

	recent := make([]contracts.NormalizedMessage, 30)
	for i := range recent {
		recent[i] = contracts.NormalizedMessage{Type: contracts.ControlChange, Channel: 1, PrimaryID: i, Value: 1}
	}
	next, _ = m.Update(MessagesMsg(contracts.QueueSnapshot{RecentActivity: recent}))
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"CC3 Ch1", "Note60 Ch*", "Unmapped", " 79", "learning lVolume", "DDJ-400 (Pioneer)", "Control Change"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if n := strings.Count(view, "Control Change"); n != contracts.DefaultDisplayLimit {
		t.Fatalf("monitor shows %d lines, want %d", n, contracts.DefaultDisplayLimit)
	}
}
