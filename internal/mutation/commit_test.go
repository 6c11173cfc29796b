package mutation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/outputctl/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("pending batch is refused", func(t *testing.T) {
		sink := &fakeBackend{}
		issued, err := Commit(ctx, NewBatch(twoOutputs()), sink)
		assert.Error(t, err)
		assert.False(t, issued)
		assert.Zero(t, sink.applies)
	})

	t.Run("aborted batch never commits", func(t *testing.T) {
		sink := &fakeBackend{}
		b := NewBatch(twoOutputs())
		runErr := b.Run([]string{"output.1.disable", "output.bogus.enable"})
		require.Error(t, runErr)
		require.True(t, b.Snapshot().Dirty())

		issued, err := Commit(ctx, b, sink)
		assert.Equal(t, runErr, err)
		assert.False(t, issued)
		assert.Zero(t, sink.applies)
	})

	t.Run("clean batch issues nothing", func(t *testing.T) {
		sink := &fakeBackend{}
		b := NewBatch(twoOutputs())
		require.NoError(t, b.Run(nil))

		issued, err := Commit(ctx, b, sink)
		require.NoError(t, err)
		assert.False(t, issued)
		assert.Zero(t, sink.applies)
	})

	t.Run("dirty batch commits once and clears the flag", func(t *testing.T) {
		sink := &fakeBackend{}
		b := NewBatch(twoOutputs())
		require.NoError(t, b.Run([]string{"output.1.scale.2", "output.2.enable", "output.2.primary"}))

		issued, err := Commit(ctx, b, sink)
		require.NoError(t, err)
		assert.True(t, issued)
		assert.Equal(t, 1, sink.applies)
		assert.False(t, b.Snapshot().Dirty())

		require.NotNil(t, sink.applied)
		assert.Equal(t, 2.0, sink.applied.Output(1).Scale)
		assert.True(t, sink.applied.Output(3).Primary)
		assert.False(t, sink.applied.Output(1).Primary)

		issued, err = Commit(ctx, b, sink)
		require.NoError(t, err)
		assert.False(t, issued, "nothing left to commit")
		assert.Equal(t, 1, sink.applies)
	})

	t.Run("sink failure is a backend error and keeps the flag", func(t *testing.T) {
		sink := &fakeBackend{applyErr: errors.New("setConfig rejected")}
		b := NewBatch(twoOutputs())
		require.NoError(t, b.Run([]string{"output.1.overscan.10"}))

		issued, err := Commit(ctx, b, sink)
		require.Error(t, err)
		assert.True(t, issued)
		assert.Equal(t, 1, sink.applies)
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.Contains(t, err.Error(), "setConfig rejected")
		assert.True(t, b.Snapshot().Dirty())

		var merr *Error
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, BackendError, merr.Kind)
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input completes without commit", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs()}
		res, err := Run(ctx, be, be, nil, RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, Completed, res.Batch.State())
		assert.False(t, res.Committed)
		assert.False(t, res.Batch.Snapshot().Dirty())
		assert.Equal(t, 1, be.fetches)
		assert.Zero(t, be.applies)
	})

	t.Run("mutations are committed in one request", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs()}
		res, err := Run(ctx, be, be, []string{"output.eDP-1.position.0,0", "output.2.enable", "output.2.position.1920,0"}, RunOptions{Timeout: time.Second})
		require.NoError(t, err)
		assert.True(t, res.Committed)
		assert.Equal(t, 1, be.applies)
		assert.Equal(t, display.Position{X: 1920}, be.applied.Output(3).Position)
	})

	t.Run("abort issues no commit", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs()}
		res, err := Run(ctx, be, be, []string{"output.1.disable", "output.bogus.enable"}, RunOptions{})
		assert.Equal(t, ExitBadReference, ExitCode(err))
		assert.Equal(t, Aborted, res.Batch.State())
		assert.False(t, res.Batch.Snapshot().Output(1).Enabled)
		assert.False(t, res.Committed)
		assert.Zero(t, be.applies)
	})

	t.Run("fetch failure stops before any specifier", func(t *testing.T) {
		be := &fakeBackend{fetchErr: errors.New("no bus")}
		inspected := false
		res, err := Run(ctx, be, be, []string{"output.1.primary"}, RunOptions{
			Inspect: func(*display.Snapshot) error { inspected = true; return nil },
		})
		assert.Nil(t, res)
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.Contains(t, err.Error(), "no bus")
		assert.False(t, inspected)
		assert.Zero(t, be.applies)
	})

	t.Run("inspect sees the unmodified snapshot", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs()}
		var seenScale float64
		_, err := Run(ctx, be, be, []string{"output.1.scale.3"}, RunOptions{
			Inspect: func(s *display.Snapshot) error { seenScale = s.Output(1).Scale; return nil },
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, seenScale)
	})

	t.Run("dry run never commits", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs()}
		res, err := Run(ctx, be, be, []string{"output.1.scale.2"}, RunOptions{DryRun: true})
		require.NoError(t, err)
		assert.False(t, res.Committed)
		assert.Equal(t, 2.0, res.Batch.Snapshot().Output(1).Scale)
		assert.Zero(t, be.applies)
	})

	t.Run("declined confirmation skips commit", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs()}
		asked := 0
		res, err := Run(ctx, be, be, []string{"output.1.scale.2"}, RunOptions{
			Confirm: func(*display.Snapshot) (bool, error) { asked++; return false, nil },
		})
		require.NoError(t, err)
		assert.Equal(t, 1, asked)
		assert.False(t, res.Committed)
		assert.Zero(t, be.applies)
	})

	t.Run("confirmation is not asked when nothing changed", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs()}
		asked := 0
		_, err := Run(ctx, be, be, nil, RunOptions{
			Confirm: func(*display.Snapshot) (bool, error) { asked++; return true, nil },
		})
		require.NoError(t, err)
		assert.Zero(t, asked)
	})

	t.Run("commit failure surfaces as exit 1", func(t *testing.T) {
		be := &fakeBackend{snapshot: twoOutputs(), applyErr: context.DeadlineExceeded}
		res, err := Run(ctx, be, be, []string{"output.1.primary"}, RunOptions{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.False(t, res.Committed)
		assert.Equal(t, 1, be.applies, "no retry")
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("plain")))

	wrapped := errors.Join(errors.New("context"), &Error{Kind: ParseError, Code: ExitBadSpecifier, Err: errors.New("x")})
	assert.Equal(t, ExitBadSpecifier, ExitCode(wrapped))
}
