package display

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLayout = `outputs:
  - id: 1
    name: eDP-1
    connected: true
    enabled: true
    primary: true
    pos: {x: 0, y: 0}
    size: {width: 1920, height: 1080}
    scale: 1.25
    rotation: normal
    vrr_policy: automatic
    rgb_range: full
    capabilities: 7
    current_mode_id: "1"
    modes:
      - id: "1"
        size: {width: 1920, height: 1080}
        refresh_rate: 60.0
  - id: 2
    name: HDMI-A-1
    connected: true
    enabled: false
`

func writeLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileBackendFetch(t *testing.T) {
	b, err := NewFileBackend(writeLayout(t, sampleLayout))
	require.NoError(t, err)
	defer b.Close()

	s, err := b.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Outputs, 2)

	edp := s.Output(1)
	assert.Equal(t, "eDP-1", edp.Name)
	assert.True(t, edp.Primary)
	assert.Equal(t, 1.25, edp.Scale)
	assert.Equal(t, RotationNone, edp.Rotation)
	assert.Equal(t, VrrAutomatic, edp.VrrPolicy)
	assert.Equal(t, RgbRangeFull, edp.RgbRange)
	assert.True(t, edp.Capabilities.Has(CapabilityVrr))
	assert.Equal(t, "1920x1080@60", edp.CurrentMode().Label())

	hdmi := s.Output(2)
	assert.False(t, hdmi.Enabled)
	assert.Equal(t, 1.0, hdmi.Scale, "missing scale defaults to 1")
	assert.False(t, s.Dirty())
}

func TestFileBackendApply(t *testing.T) {
	path := writeLayout(t, sampleLayout)
	b, err := NewFileBackend(path)
	require.NoError(t, err)

	ctx := context.Background()
	s, err := b.Fetch(ctx)
	require.NoError(t, err)

	s.Output(2).Enabled = true
	s.Output(2).Position = Position{X: 1920, Y: 0}
	s.Output(2).Rotation = RotationLeft
	require.NoError(t, b.Apply(ctx, s))

	again, err := b.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, again.Output(2).Enabled)
	assert.Equal(t, Position{X: 1920, Y: 0}, again.Output(2).Position)
	assert.Equal(t, RotationLeft, again.Output(2).Rotation)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileBackendErrors(t *testing.T) {
	_, err := NewFileBackend("")
	assert.Error(t, err)

	b, err := NewFileBackend(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	_, err = b.Fetch(context.Background())
	assert.Error(t, err)

	b, err = NewFileBackend(writeLayout(t, "outputs: [1, 2"))
	require.NoError(t, err)
	_, err = b.Fetch(context.Background())
	assert.Error(t, err)

	b, err = NewFileBackend(writeLayout(t, "outputs:\n  - id: 1\n    rotation: sideways\n"))
	require.NoError(t, err)
	_, err = b.Fetch(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenFileBackend(t *testing.T) {
	b, err := Open(context.Background(), Options{Name: "file", File: writeLayout(t, sampleLayout)})
	require.NoError(t, err)
	assert.Equal(t, "file", b.Name())

	_, err = Open(context.Background(), Options{Name: "wayland"})
	assert.Error(t, err)
}
