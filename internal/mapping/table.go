// Package mapping holds the binding table from virtual controls to physical
// message patterns.
package mapping

import (
	"fmt"

	"github.com/akisma/pioneer-vision/sdk/contracts"
)

// Table stores at most one Mapping per control id, in insertion order.
// It is not safe for concurrent use.
type Table struct {
	entries []contracts.Mapping
	index   map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Validate checks the fields of m.
func Validate(m contracts.Mapping) error {
	switch {
	case m.ControlID == "":
		return fmt.Errorf("%w: missing control id", contracts.ErrInvalidMapping)
	case m.ControlType == "":
		return fmt.Errorf("%w: missing control type for %q", contracts.ErrInvalidMapping, m.ControlID)
	case m.Channel < contracts.AnyChannel || m.Channel > 16:
		return fmt.Errorf("%w: channel %d out of range for %q", contracts.ErrInvalidMapping, m.Channel, m.ControlID)
	case m.PrimaryID < 0 || m.PrimaryID > 127:
		return fmt.Errorf("%w: primary id %d out of range for %q", contracts.ErrInvalidMapping, m.PrimaryID, m.ControlID)
	}
	return nil
}

// Set inserts m or replaces the mapping with the same control id. A replaced
// mapping keeps its position. Set reports whether an entry was replaced.
func (t *Table) Set(m contracts.Mapping) (replaced bool, err error) {
	if err := Validate(m); err != nil {
		return false, err
	}
	if i, ok := t.index[m.ControlID]; ok {
		t.entries[i] = m
		return true, nil
	}
	t.index[m.ControlID] = len(t.entries)
	t.entries = append(t.entries, m)
	return false, nil
}

// Delete removes the mapping of controlID and reports whether one existed.
func (t *Table) Delete(controlID string) bool {
	i, ok := t.index[controlID]
	if !ok {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, controlID)
	for j := i; j < len(t.entries); j++ {
		t.index[t.entries[j].ControlID] = j
	}
	return true
}

// Get returns the mapping of controlID.
func (t *Table) Get(controlID string) (contracts.Mapping, bool) {
	i, ok := t.index[controlID]
	if !ok {
		return contracts.Mapping{}, false
	}
	return t.entries[i], true
}

// Match returns every mapping that msg drives, in insertion order.
func (t *Table) Match(msg contracts.NormalizedMessage) []contracts.Mapping {
	var out []contracts.Mapping
	for _, m := range t.entries {
		if Matches(m, msg) {
			out = append(out, m)
		}
	}
	return out
}

// Matches reports whether msg satisfies the rule of m.
func Matches(m contracts.Mapping, msg contracts.NormalizedMessage) bool {
	if m.MessageType.Family() != msg.Type.Family() || m.PrimaryID != msg.PrimaryID {
		return false
	}
	return m.Wildcard() || m.Channel == msg.Channel
}

// Conflicts returns the ids of mappings, other than exceptID, bound to the
// same physical control as m.
func (t *Table) Conflicts(m contracts.Mapping, exceptID string) []string {
	var ids []string
	for _, e := range t.entries {
		if e.ControlID == exceptID {
			continue
		}
		if e.MessageType.Family() == m.MessageType.Family() && e.Channel == m.Channel && e.PrimaryID == m.PrimaryID {
			ids = append(ids, e.ControlID)
		}
	}
	return ids
}

// All returns a copy of the table in insertion order.
func (t *Table) All() []contracts.Mapping {
	return append([]contracts.Mapping(nil), t.entries...)
}

func (t *Table) Len() int {
	return len(t.entries)
}

// Clear removes every mapping.
func (t *Table) Clear() {
	t.entries = nil
	t.index = make(map[string]int)
}
