package mutation

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/outputctl/internal/display"
	"github.com/bnema/outputctl/internal/logger"
)

// RunOptions tunes a single Run
type RunOptions struct {
	// Timeout bounds each backend request; zero means no limit
	Timeout time.Duration

	// DryRun stops before the commit
	DryRun bool

	// Inspect sees the fetched snapshot before any specifier is applied
	Inspect func(s *display.Snapshot) error

	// Confirm is asked before committing; false skips the commit
	Confirm func(s *display.Snapshot) (bool, error)
}

// Result describes how a Run ended
type Result struct {
	Batch     *Batch
	Committed bool
}

// Run fetches the configuration once, applies specs and commits at most once
func Run(ctx context.Context, src display.Source, sink display.Sink, specs []string, opts RunOptions) (*Result, error) {
	snapshot, err := fetch(ctx, src, opts.Timeout)
	if err != nil {
		return nil, err
	}

	if opts.Inspect != nil {
		if err := opts.Inspect(snapshot); err != nil {
			return nil, err
		}
	}

	batch := NewBatch(snapshot)
	res := &Result{Batch: batch}
	if err := batch.Run(specs); err != nil {
		return res, err
	}
	logger.Debug("batch completed", "applied", batch.Applied(), "dirty", snapshot.Dirty())

	if !snapshot.Dirty() {
		return res, nil
	}

	if opts.DryRun {
		logger.Info("dry run, configuration not applied")
		return res, nil
	}

	if opts.Confirm != nil {
		ok, err := opts.Confirm(snapshot)
		if err != nil {
			return res, err
		}
		if !ok {
			logger.Info("configuration not applied")
			return res, nil
		}
	}

	commitCtx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	issued, err := Commit(commitCtx, batch, sink)
	res.Committed = issued && err == nil
	return res, err
}

func fetch(ctx context.Context, src display.Source, timeout time.Duration) (*display.Snapshot, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	s, err := src.Fetch(ctx)
	if err != nil {
		return nil, &Error{
			Kind: BackendError,
			Code: ExitFailure,
			Err:  fmt.Errorf("failed to fetch configuration: %w", err),
		}
	}
	s.ClearDirty()
	return s, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
