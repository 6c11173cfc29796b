package mutation

import (
	"errors"
	"fmt"

	"github.com/bnema/outputctl/internal/display"
)

// State of a Batch
type State int

const (
	Pending State = iota
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Batch applies specifiers to a snapshot it owns until the first failure
type Batch struct {
	snapshot *display.Snapshot
	state    State
	err      error
	applied  int
}

// NewBatch takes ownership of s for the duration of the run
func NewBatch(s *display.Snapshot) *Batch {
	return &Batch{snapshot: s}
}

// Run processes specs in order. The first failing specifier aborts the batch
// and the rest are never looked at; changes made before it stay in the
// snapshot but the batch can no longer be committed.
func (b *Batch) Run(specs []string) error {
	if b.state != Pending {
		return fmt.Errorf("batch already %s", b.state)
	}

	for _, spec := range specs {
		if err := b.step(spec); err != nil {
			b.state = Aborted
			b.err = err
			return err
		}
		b.applied++
	}

	b.state = Completed
	return nil
}

func (b *Batch) step(spec string) error {
	m, err := Parse(spec)
	if err != nil {
		return err
	}

	id, err := ResolveID(b.snapshot, m.Ref)
	if err != nil {
		var merr *Error
		if errors.As(err, &merr) {
			merr.Specifier = spec
		}
		return err
	}

	if err := ParseArg(&m); err != nil {
		return err
	}

	o, ok := Lookup(b.snapshot, id)
	if !ok {
		return newError(ResolveError, m.Kind.notFoundCode(), spec, m.Ref, "no output with id %d", id)
	}

	if err := Validate(o, &m); err != nil {
		return err
	}

	Apply(b.snapshot, o, m)
	return nil
}

func (b *Batch) Snapshot() *display.Snapshot {
	return b.snapshot
}

func (b *Batch) State() State {
	return b.state
}

// Err is the error that aborted the batch
func (b *Batch) Err() error {
	return b.err
}

// Applied counts the specifiers applied so far
func (b *Batch) Applied() int {
	return b.applied
}
