package mutation

import (
	"github.com/bnema/outputctl/internal/display"
	"github.com/bnema/outputctl/internal/logger"
)

// Validate runs the checks that need the target output. For mode mutations it
// binds the matching mode, which Apply relies on.
func Validate(o *display.Output, m *Mutation) error {
	switch m.Kind {
	case KindMode:
		mode := o.FindMode(m.ModeRef)
		if mode == nil {
			return newError(ValidateError, ExitInvalidValue, m.Spec, m.ModeRef,
				"output %s has no mode %q", o.Name, m.ModeRef)
		}
		m.mode = mode

	case KindVrrPolicy:
		if !o.Capabilities.Has(display.CapabilityVrr) {
			logger.Warn("output does not advertise variable refresh rate, applying anyway", "output", o.Name)
		}

	case KindRgbRange:
		if !o.Capabilities.Has(display.CapabilityRgbRange) {
			logger.Warn("output does not advertise rgb range control, applying anyway", "output", o.Name)
		}
	}
	return nil
}

// Apply writes the mutation into o and marks s dirty. It expects a mutation
// that passed Validate against the same output.
func Apply(s *display.Snapshot, o *display.Output, m Mutation) {
	switch m.Kind {
	case KindPrimary:
		for _, other := range s.Outputs {
			other.Primary = false
		}
		o.Primary = true
		logger.Info("setting primary output", "output", o.Name)

	case KindEnable:
		o.Enabled = m.Enable
		if m.Enable {
			logger.Info("enabling output", "output", o.Name)
		} else {
			logger.Info("disabling output", "output", o.Name)
		}

	case KindMode:
		mode := m.mode
		if mode == nil {
			mode = o.FindMode(m.ModeRef)
		}
		if mode == nil {
			logger.Error("mode vanished before apply", "output", o.Name, "mode", m.ModeRef)
			return
		}
		o.CurrentModeID = mode.ID
		o.Size = mode.Size
		logger.Info("setting mode", "output", o.Name, "value", mode.Label())

	case KindPosition:
		o.Position = m.Position
		logger.Info("setting position", "output", o.Name, "value", m.Position)

	case KindScale:
		o.Scale = m.Scale
		logger.Info("setting scale", "output", o.Name, "value", m.Scale)

	case KindRotation:
		o.Rotation = m.Rotation
		logger.Info("setting rotation", "output", o.Name, "value", m.Rotation)

	case KindOverscan:
		o.Overscan = m.Overscan
		logger.Info("setting overscan", "output", o.Name, "value", m.Overscan)

	case KindVrrPolicy:
		o.VrrPolicy = m.VrrPolicy
		logger.Info("setting vrr policy", "output", o.Name, "value", m.VrrPolicy)

	case KindRgbRange:
		o.RgbRange = m.RgbRange
		logger.Info("setting rgb range", "output", o.Name, "value", m.RgbRange)
	}

	s.MarkDirty()
}
