package mutation

import (
	"testing"

	"github.com/bnema/outputctl/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec  string
		check func(t *testing.T, m Mutation)
	}{
		{"output.1.primary", func(t *testing.T, m Mutation) {
			assert.Equal(t, KindPrimary, m.Kind)
			assert.Equal(t, "1", m.Ref)
		}},
		{"output.HDMI-A-1.enable", func(t *testing.T, m Mutation) {
			assert.Equal(t, KindEnable, m.Kind)
			assert.True(t, m.Enable)
			assert.Equal(t, "HDMI-A-1", m.Ref)
		}},
		{"output.1.disable", func(t *testing.T, m Mutation) {
			assert.Equal(t, KindEnable, m.Kind)
			assert.False(t, m.Enable)
		}},
		{"output.1.mode.1920x1080@60", func(t *testing.T, m Mutation) {
			assert.Equal(t, KindMode, m.Kind)
			assert.Equal(t, "1920x1080@60", m.ModeRef)
		}},
		{"output.1.position.-1920,0", func(t *testing.T, m Mutation) {
			assert.Equal(t, display.Position{X: -1920, Y: 0}, m.Position)
		}},
		{"output.1.scale.2", func(t *testing.T, m Mutation) {
			assert.Equal(t, 2.0, m.Scale)
		}},
		{"output.1.scale.1,5", func(t *testing.T, m Mutation) {
			assert.Equal(t, 1.5, m.Scale)
		}},
		{"output.1.scale.2.5", func(t *testing.T, m Mutation) {
			assert.Equal(t, 2.5, m.Scale)
		}},
		{"output.1.scale.2,5", func(t *testing.T, m Mutation) {
			assert.Equal(t, 2.5, m.Scale)
		}},
		{"output.1.orientation.left", func(t *testing.T, m Mutation) {
			assert.Equal(t, KindRotation, m.Kind)
			assert.Equal(t, display.RotationLeft, m.Rotation)
		}},
		{"output.1.rotation.Normal", func(t *testing.T, m Mutation) {
			assert.Equal(t, display.RotationNone, m.Rotation)
		}},
		{"output.1.overscan.0", func(t *testing.T, m Mutation) {
			assert.Equal(t, uint32(0), m.Overscan)
		}},
		{"output.1.overscan.100", func(t *testing.T, m Mutation) {
			assert.Equal(t, uint32(100), m.Overscan)
		}},
		{"output.1.vrrpolicy.automatic", func(t *testing.T, m Mutation) {
			assert.Equal(t, display.VrrAutomatic, m.VrrPolicy)
		}},
		{"output.1.rgbrange.limited", func(t *testing.T, m Mutation) {
			assert.Equal(t, display.RgbRangeLimited, m.RgbRange)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			m, err := Parse(tt.spec)
			require.NoError(t, err)
			require.NoError(t, ParseArg(&m))
			assert.Equal(t, tt.spec, m.Spec)
			tt.check(t, m)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"output",
		"output.1",
		"screen.1.primary",
		"output.1.Primary",
		"output.1.primary.now",
		"output.1.enable.yes",
		"output.1.mode",
		"output.1.position",
		"output.1.position.1,2.3",
		"output.1.scale",
		"output.1.scale.1.2.3",
		"output.1.brightness.50",
	}

	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			require.Error(t, err)

			var merr *Error
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, ParseError, merr.Kind)
			assert.Equal(t, ExitBadSpecifier, ExitCode(err))
			assert.Contains(t, err.Error(), spec)
		})
	}
}

func TestParseLeavesArgumentUnread(t *testing.T) {
	for _, spec := range []string{
		"output.bogus.position.abc",
		"output.bogus.scale.0",
		"output.bogus.rotation.sideways",
		"output.bogus.overscan.150",
	} {
		m, err := Parse(spec)
		require.NoError(t, err, spec)
		assert.Equal(t, "bogus", m.Ref)
	}
}

func TestParseArgErrors(t *testing.T) {
	tests := []struct {
		spec string
		code int
	}{
		{"output.1.position.10", ExitBadPosition},
		{"output.1.position.10,x", ExitBadPosition},
		{"output.1.position.10,20,30", ExitBadPosition},

		{"output.1.scale.0", ExitInvalidValue},
		{"output.1.scale.-1", ExitInvalidValue},
		{"output.1.scale.big", ExitInvalidValue},
		{"output.1.scale.inf", ExitInvalidValue},
		{"output.1.scale.NaN", ExitInvalidValue},
		{"output.1.rotation.sideways", ExitInvalidValue},
		{"output.1.overscan.150", ExitInvalidValue},
		{"output.1.overscan.-1", ExitInvalidValue},
		{"output.1.overscan.ten", ExitInvalidValue},
		{"output.1.vrrpolicy.sometimes", ExitInvalidValue},
		{"output.1.rgbrange.wide", ExitInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			m, err := Parse(tt.spec)
			require.NoError(t, err)

			err = ParseArg(&m)
			require.Error(t, err)

			var merr *Error
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, ValidateError, merr.Kind)
			assert.Equal(t, tt.code, ExitCode(err))
			assert.Contains(t, err.Error(), tt.spec)
		})
	}
}

func TestParseArgErrorNamesToken(t *testing.T) {
	m, err := Parse("output.1.overscan.150")
	require.NoError(t, err)
	err = ParseArg(&m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"150"`)
}
