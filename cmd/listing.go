package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bnema/outputctl/internal/display"
	"github.com/bnema/outputctl/internal/ui"
)

// printListings writes the JSON dump and then the colored listing, each only
// when asked for
func printListings(w io.Writer, s *display.Snapshot, asJSON, asList bool) error {
	if asJSON {
		data, err := json.MarshalIndent(s, "", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}

	if asList {
		if len(s.Outputs) == 0 {
			_, err := fmt.Fprintln(w, "No outputs detected")
			return err
		}
		if _, err := fmt.Fprint(w, ui.RenderOutputs(s)); err != nil {
			return err
		}
	}
	return nil
}
