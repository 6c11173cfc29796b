// Package display holds the output-configuration model and the backends that
// read and persist it.
package display

import (
	"fmt"
	"math"
)

// Position is the top-left corner of an output in the global coordinate space
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Size is a width/height pair in pixels
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Mode is a resolution/refresh-rate pairing supported by an output
type Mode struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	Size        Size    `json:"size" yaml:"size"`
	RefreshRate float64 `json:"refreshRate" yaml:"refresh_rate"`
}

// Label returns the synthesized WIDTHxHEIGHT@RATE name, rate rounded to Hz
func (m *Mode) Label() string {
	return fmt.Sprintf("%dx%d@%d", m.Size.Width, m.Size.Height, int(math.Round(m.RefreshRate)))
}

// Capabilities is a bit set of optional output features
type Capabilities uint32

const (
	CapabilityOverscan Capabilities = 1 << iota
	CapabilityVrr
	CapabilityRgbRange
)

// Has reports whether every bit of c2 is set
func (c Capabilities) Has(c2 Capabilities) bool {
	return c&c2 == c2
}

// Output is one display sink and its configuration
type Output struct {
	ID              int          `json:"id" yaml:"id"`
	Name            string       `json:"name" yaml:"name"`
	Type            string       `json:"type,omitempty" yaml:"type,omitempty"`
	Connected       bool         `json:"connected" yaml:"connected"`
	Enabled         bool         `json:"enabled" yaml:"enabled"`
	Primary         bool         `json:"primary" yaml:"primary"`
	Position        Position     `json:"pos" yaml:"pos"`
	Size            Size         `json:"size" yaml:"size"`
	Scale           float64      `json:"scale" yaml:"scale"`
	Rotation        Rotation     `json:"rotation" yaml:"rotation"`
	Overscan        uint32       `json:"overscan" yaml:"overscan"`
	VrrPolicy       VrrPolicy    `json:"vrrPolicy" yaml:"vrr_policy"`
	RgbRange        RgbRange     `json:"rgbRange" yaml:"rgb_range"`
	Capabilities    Capabilities `json:"capabilities" yaml:"capabilities"`
	CurrentModeID   string       `json:"currentModeId,omitempty" yaml:"current_mode_id,omitempty"`
	PreferredModeID string       `json:"preferredModeId,omitempty" yaml:"preferred_mode_id,omitempty"`
	Modes           []*Mode      `json:"modes" yaml:"modes"`
}

// Mode returns the mode with the given id
func (o *Output) Mode(id string) *Mode {
	for _, m := range o.Modes {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// CurrentMode returns the active mode, nil if the output has none
func (o *Output) CurrentMode() *Mode {
	if o.CurrentModeID == "" {
		return nil
	}
	return o.Mode(o.CurrentModeID)
}

// FindMode matches ref against each mode's id, then its synthesized label
func (o *Output) FindMode(ref string) *Mode {
	for _, m := range o.Modes {
		if m.ID == ref || m.Label() == ref {
			return m
		}
	}
	return nil
}

// Snapshot is the full configuration of every output for one run. It has a
// single owner; nothing in it is safe for concurrent use.
type Snapshot struct {
	Outputs []*Output `json:"outputs" yaml:"outputs"`

	dirty bool
}

// NewSnapshot returns a clean snapshot holding outputs in the given order
func NewSnapshot(outputs []*Output) *Snapshot {
	return &Snapshot{Outputs: outputs}
}

// Output returns the output with the given id
func (s *Snapshot) Output(id int) *Output {
	for _, o := range s.Outputs {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// OutputByName returns the first output named name
func (s *Snapshot) OutputByName(name string) *Output {
	for _, o := range s.Outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Primary returns the primary output, if any
func (s *Snapshot) Primary() *Output {
	for _, o := range s.Outputs {
		if o.Primary {
			return o
		}
	}
	return nil
}

// MarkDirty records that at least one mutation was applied
func (s *Snapshot) MarkDirty() {
	s.dirty = true
}

// Dirty reports whether the snapshot holds uncommitted mutations
func (s *Snapshot) Dirty() bool {
	return s.dirty
}

// ClearDirty is called once a commit was acknowledged
func (s *Snapshot) ClearDirty() {
	s.dirty = false
}

// Clone returns a deep copy with a clean dirty flag
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{Outputs: make([]*Output, len(s.Outputs))}
	for i, o := range s.Outputs {
		oc := *o
		if o.Modes != nil {
			oc.Modes = make([]*Mode, len(o.Modes))
			for j, m := range o.Modes {
				mc := *m
				oc.Modes[j] = &mc
			}
		}
		c.Outputs[i] = &oc
	}
	return c
}
