package mutation

import (
	"strconv"

	"github.com/bnema/outputctl/internal/display"
	"github.com/bnema/outputctl/internal/logger"
)

// ResolveID maps an output reference to an output id. A name match wins over
// the numeric reading, so an output literally named "2" is found by name.
// The id is not checked against the snapshot; see Lookup.
func ResolveID(s *display.Snapshot, ref string) (int, error) {
	if o := s.OutputByName(ref); o != nil {
		logger.Debug("resolved output by name", "ref", ref, "id", o.ID)
		return o.ID, nil
	}

	id, err := strconv.Atoi(ref)
	if err != nil {
		return 0, newError(ResolveError, ExitBadReference, "", ref,
			"%q is neither an output name nor an output id", ref)
	}
	logger.Debug("resolved output by id", "ref", ref, "id", id)
	return id, nil
}

// Lookup finds the output with the given id
func Lookup(s *display.Snapshot, id int) (*display.Output, bool) {
	o := s.Output(id)
	return o, o != nil
}
