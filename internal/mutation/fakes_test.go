package mutation

import (
	"context"

	"github.com/bnema/outputctl/internal/display"
)

// fakeBackend counts requests and records what it was asked to apply
type fakeBackend struct {
	snapshot *display.Snapshot
	fetchErr error
	applyErr error

	fetches int
	applies int
	applied *display.Snapshot
}

func (f *fakeBackend) Fetch(ctx context.Context) (*display.Snapshot, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot.Clone(), nil
}

func (f *fakeBackend) Apply(ctx context.Context, s *display.Snapshot) error {
	f.applies++
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = s.Clone()
	return nil
}

// twoOutputs is a laptop panel plus an external screen named "2" to exercise
// name-before-id resolution
func twoOutputs() *display.Snapshot {
	return display.NewSnapshot([]*display.Output{
		{
			ID: 1, Name: "eDP-1", Connected: true, Enabled: true, Primary: true, Scale: 1,
			Size:          display.Size{Width: 1920, Height: 1080},
			Capabilities:  display.CapabilityOverscan | display.CapabilityVrr | display.CapabilityRgbRange,
			CurrentModeID: "70",
			Modes: []*display.Mode{
				{ID: "70", Size: display.Size{Width: 1920, Height: 1080}, RefreshRate: 60.02},
				{ID: "71", Size: display.Size{Width: 1280, Height: 720}, RefreshRate: 59.94},
			},
		},
		{
			ID: 3, Name: "2", Connected: true, Enabled: false, Scale: 1,
			Modes: []*display.Mode{
				{ID: "90", Size: display.Size{Width: 2560, Height: 1440}, RefreshRate: 143.91},
			},
		},
	})
}
