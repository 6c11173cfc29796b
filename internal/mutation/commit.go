package mutation

import (
	"context"
	"fmt"

	"github.com/bnema/outputctl/internal/display"
	"github.com/bnema/outputctl/internal/logger"
)

// Commit hands the batch's snapshot to sink, once, if the batch completed and
// changed something. It reports whether a request was issued.
func Commit(ctx context.Context, b *Batch, sink display.Sink) (bool, error) {
	switch b.State() {
	case Pending:
		return false, fmt.Errorf("cannot commit a batch that has not run")
	case Aborted:
		return false, b.Err()
	}

	s := b.Snapshot()
	if !s.Dirty() {
		logger.Debug("nothing to commit")
		return false, nil
	}

	logger.Debug("committing configuration", "outputs", len(s.Outputs))
	if err := sink.Apply(ctx, s); err != nil {
		return true, &Error{
			Kind: BackendError,
			Code: ExitFailure,
			Err:  fmt.Errorf("failed to apply configuration: %w", err),
		}
	}

	s.ClearDirty()
	return true, nil
}
