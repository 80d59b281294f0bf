// Package layout describes the virtual controls shown by the console and
// optional preset bindings for them.
package layout

import (
	"fmt"
	"os"

	"github.com/akisma/pioneer-vision/sdk/contracts"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Binding is a preset matching rule. Channel 0 matches any channel.
type Binding struct {
	Type    string `yaml:"type"` // controlChange, noteOn, pitchBend, or the aliases cc, note, pb
	Channel int    `yaml:"channel"`
	ID      int    `yaml:"id"`
}

// Control is one virtual control.
type Control struct {
	ID      string                `yaml:"id"`
	Type    contracts.ControlType `yaml:"type"`
	Label   string                `yaml:"label,omitempty"`
	Binding *Binding              `yaml:"midi,omitempty"`
}

// Title returns the label, or the id when no label is set.
func (c Control) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// Layout is the root of a layout file.
type Layout struct {
	Device   string    `yaml:"device,omitempty"` // preferred input device, matched as a substring
	Controls []Control `yaml:"controls"`
}

// Default returns the two-deck mixer layout.
func Default() Layout {
	return Layout{Controls: []Control{
		{ID: "lVolume", Type: contracts.Slider, Label: "Left Volume"},
		{ID: "xFader", Type: contracts.Slider, Label: "Crossfader"},
		{ID: "rVolume", Type: contracts.Slider, Label: "Right Volume"},
		{ID: "fx1", Type: contracts.Button, Label: "FX 1"},
		{ID: "fx2", Type: contracts.Button, Label: "FX 2"},
	}}
}

// Load reads and validates the layout file at path.
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return Layout{}, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a YAML layout.
func Parse(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, err
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate reports every problem in the layout.
func (l Layout) Validate() error {
	var err error
	if len(l.Controls) == 0 {
		err = multierr.Append(err, fmt.Errorf("no controls defined"))
	}
	seen := make(map[string]bool, len(l.Controls))
	for i, c := range l.Controls {
		switch {
		case c.ID == "":
			err = multierr.Append(err, fmt.Errorf("control %d: missing id", i))
			continue
		case seen[c.ID]:
			err = multierr.Append(err, fmt.Errorf("control %q: duplicate id", c.ID))
		}
		seen[c.ID] = true
		if c.Type != contracts.Slider && c.Type != contracts.Button {
			err = multierr.Append(err, fmt.Errorf("control %q: unknown type %q", c.ID, c.Type))
		}
		if c.Binding != nil {
			if _, berr := c.mapping(); berr != nil {
				err = multierr.Append(err, berr)
			}
		}
	}
	return err
}

func (c Control) mapping() (contracts.Mapping, error) {
	t, err := contracts.ParseMessageType(c.Binding.Type)
	if err != nil {
		return contracts.Mapping{}, fmt.Errorf("control %q: %w", c.ID, err)
	}
	m := contracts.Mapping{
		ControlID:   c.ID,
		ControlType: c.Type,
		MessageType: t,
		Channel:     c.Binding.Channel,
		PrimaryID:   c.Binding.ID,
	}
	if m.Channel < contracts.AnyChannel || m.Channel > 16 || m.PrimaryID < 0 || m.PrimaryID > 127 {
		return contracts.Mapping{}, fmt.Errorf("control %q: %w: channel %d id %d", c.ID, contracts.ErrInvalidMapping, m.Channel, m.PrimaryID)
	}
	return m, nil
}

// Mappings returns the preset bindings in layout order.
func (l Layout) Mappings() ([]contracts.Mapping, error) {
	var (
		out []contracts.Mapping
		err error
	)
	for _, c := range l.Controls {
		if c.Binding == nil {
			continue
		}
		m, merr := c.mapping()
		if merr != nil {
			err = multierr.Append(err, merr)
			continue
		}
		out = append(out, m)
	}
	return out, err
}

// Mapper receives preset bindings.
type Mapper interface {
	MapControl(m contracts.Mapping) error
}

// Apply installs every preset binding into target and returns the combined
// errors of the bindings that failed.
func (l Layout) Apply(target Mapper) error {
	mappings, err := l.Mappings()
	for _, m := range mappings {
		err = multierr.Append(err, target.MapControl(m))
	}
	return err
}

// Find returns the control with the given id.
func (l Layout) Find(id string) (Control, bool) {
	for _, c := range l.Controls {
		if c.ID == id {
			return c, true
		}
	}
	return Control{}, false
}
