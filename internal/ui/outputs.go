package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/outputctl/internal/display"
)

// RenderOutputs returns one line per output: state flags, connector type,
// every mode and the current geometry
func RenderOutputs(s *display.Snapshot) string {
	var b strings.Builder
	for _, o := range s.Outputs {
		b.WriteString(RenderOutput(o))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderOutput renders a single output line
func RenderOutput(o *display.Output) string {
	parts := []string{
		HeaderStyle.Render("Output:") + " " + fmt.Sprintf("%d %s", o.ID, o.Name),
		FormatFlag(o.Enabled, "enabled", "disabled"),
		FormatFlag(o.Connected, "connected", "disconnected"),
	}
	if o.Primary {
		parts = append(parts, SuccessStyle.Render("primary"))
	}

	typ := o.Type
	if typ == "" {
		typ = "Unknown"
	}
	parts = append(parts, LabelStyle.Render(typ))
	parts = append(parts, SectionStyle.Render("Modes:")+" "+renderModes(o))

	parts = append(parts,
		FormatField("Geometry", fmt.Sprintf("%s %s", o.Position, o.Size)),
		FormatField("Scale", strconv.FormatFloat(o.Scale, 'f', -1, 64)),
		FormatField("Rotation", o.Rotation.String()),
		FormatField("Overscan", strconv.FormatUint(uint64(o.Overscan), 10)),
	)

	vrr := "incapable"
	if o.Capabilities.Has(display.CapabilityVrr) {
		vrr = o.VrrPolicy.String()
	}
	rgb := "unknown"
	if o.Capabilities.Has(display.CapabilityRgbRange) {
		rgb = o.RgbRange.String()
	}
	parts = append(parts, FormatField("Vrr", vrr), FormatField("RgbRange", rgb))

	return strings.Join(parts, " ")
}

// renderModes lists id:label pairs in natural id order, the current mode
// marked with * and the preferred one with !
func renderModes(o *display.Output) string {
	modes := make([]*display.Mode, len(o.Modes))
	copy(modes, o.Modes)
	sort.SliceStable(modes, func(i, j int) bool {
		return naturalLess(modes[i].ID, modes[j].ID)
	})

	items := make([]string, 0, len(modes))
	for _, m := range modes {
		name := m.Label()
		if m.ID == o.CurrentModeID {
			name = CurrentModeStyle.Render(name + "*")
		}
		if m.ID == o.PreferredModeID {
			name += "!"
		}
		items = append(items, m.ID+":"+name)
	}
	return strings.Join(items, " ")
}

// naturalLess compares strings with embedded numbers by value, so "2" sorts
// before "10"
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		ad, bd := isDigit(a[0]), isDigit(b[0])
		switch {
		case ad && bd:
			an, arest := splitDigits(a)
			bn, brest := splitDigits(b)
			at, bt := strings.TrimLeft(an, "0"), strings.TrimLeft(bn, "0")
			if len(at) != len(bt) {
				return len(at) < len(bt)
			}
			if at != bt {
				return at < bt
			}
			a, b = arest, brest
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
