package ui

import (
	"fmt"

	"github.com/bnema/outputctl/internal/display"
	"github.com/charmbracelet/huh"
)

// ConfirmApply shows the configuration about to be committed and asks
// whether to go ahead
func ConfirmApply(s *display.Snapshot) (bool, error) {
	var apply bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Apply this configuration?").
				Description(RenderOutputs(s)).
				Affirmative("Apply").
				Negative("Cancel").
				Value(&apply),
		),
	)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}

	return apply, nil
}
