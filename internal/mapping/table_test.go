package mapping

import (
	"errors"
	"testing"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

func cc(id string, channel, number int) contracts.Mapping {
	return contracts.Mapping{
		ControlID:   id,
		ControlType: contracts.Slider,
		MessageType: contracts.ControlChange,
		Channel:     channel,
		PrimaryID:   number,
	}
}

func ids(ms []contracts.Mapping) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ControlID)
	}
	return out
}

func TestTable_SetReplacesInPlace(t *testing.T) {
	tbl := NewTable()
	for _, m := range []contracts.Mapping{cc("lVolume", 1, 1), cc("xFader", 1, 3), cc("rVolume", 1, 2)} {
		if _, err := tbl.Set(m); err != nil {
			t.Fatalf("Set(%s): %v", m.ControlID, err)
		}
	}

	replaced, err := tbl.Set(cc("lVolume", 2, 9))
	if err != nil || !replaced {
		t.Fatalf("replace: replaced=%v err=%v", replaced, err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("len=%d, want 3", tbl.Len())
	}
	all := tbl.All()
	if all[0].ControlID != "lVolume" || all[0].Channel != 2 || all[0].PrimaryID != 9 {
		t.Fatalf("replaced entry moved or unchanged: %+v", all)
	}
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name string
		m    contracts.Mapping
	}{
		{"missing id", cc("", 1, 7)},
		{"missing type", contracts.Mapping{ControlID: "x", MessageType: contracts.ControlChange, Channel: 1}},
		{"channel too high", cc("x", 17, 7)},
		{"negative channel", cc("x", -1, 7)},
		{"primary id too high", cc("x", 1, 128)},
	}
	tbl := NewTable()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.Set(tt.m)
			if !errors.Is(err, contracts.ErrInvalidMapping) {
				t.Fatalf("err=%v, want ErrInvalidMapping", err)
			}
		})
	}
	if tbl.Len() != 0 {
		t.Fatalf("invalid mappings were stored")
	}
	if _, err := tbl.Set(contracts.Mapping{ControlID: "knob", ControlType: "knob", MessageType: contracts.ControlChange}); err != nil {
		t.Fatalf("custom control types must be accepted: %v", err)
	}
}

func TestTable_MatchInsertionOrderAndWildcard(t *testing.T) {
	tbl := NewTable()
	tbl.Set(cc("b", 1, 7))
	tbl.Set(cc("a", contracts.AnyChannel, 7))
	tbl.Set(cc("c", 2, 7))
	tbl.Set(cc("d", 1, 8))

	got := ids(tbl.Match(contracts.NormalizedMessage{Type: contracts.ControlChange, Channel: 1, PrimaryID: 7}))
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("match=%v, want [b a]", got)
	}
	got = ids(tbl.Match(contracts.NormalizedMessage{Type: contracts.ControlChange, Channel: 16, PrimaryID: 7}))
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("wildcard match=%v, want [a]", got)
	}
	if got := tbl.Match(contracts.NormalizedMessage{Type: contracts.NoteOn, Channel: 1, PrimaryID: 7}); len(got) != 0 {
		t.Fatalf("note matched a CC mapping: %v", ids(got))
	}
}

func TestTable_NoteFamilyMatches(t *testing.T) {
	tbl := NewTable()
	tbl.Set(contracts.Mapping{ControlID: "fx1", ControlType: contracts.Button, MessageType: contracts.NoteOn, Channel: 10, PrimaryID: 36})

	off := contracts.NormalizedMessage{Type: contracts.NoteOff, Channel: 10, PrimaryID: 36}
	if got := tbl.Match(off); len(got) != 1 {
		t.Fatalf("note-off must match a note-on mapping")
	}
	if c := tbl.Conflicts(contracts.Mapping{MessageType: contracts.NoteOff, Channel: 10, PrimaryID: 36}, ""); len(c) != 1 {
		t.Fatalf("conflicts=%v, want [fx1]", c)
	}
}

func TestTable_ConflictsAndDelete(t *testing.T) {
	tbl := NewTable()
	tbl.Set(cc("a", 1, 7))
	tbl.Set(cc("b", 1, 8))
	tbl.Set(cc("c", 1, 7))

	got := tbl.Conflicts(cc("new", 1, 7), "c")
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("conflicts=%v, want [a]", got)
	}

	if !tbl.Delete("a") {
		t.Fatalf("Delete(a) reported no entry")
	}
	if tbl.Delete("a") {
		t.Fatalf("second Delete(a) reported an entry")
	}
	if m, ok := tbl.Get("c"); !ok || m.PrimaryID != 7 {
		t.Fatalf("index not rebuilt after delete: %+v %v", m, ok)
	}
	if got := ids(tbl.All()); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("order after delete=%v", got)
	}

	tbl.Clear()
	if tbl.Len() != 0 {
		t.Fatalf("Clear left %d entries", tbl.Len())
	}
}
