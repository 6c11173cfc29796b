// Package mutation turns output specifiers into changes on a display
// snapshot and decides whether the result gets committed.
package mutation

import (
	"errors"
	"fmt"
)

// Process exit codes
const (
	ExitOK             = 0
	ExitFailure        = 1 // primary/position target missing, backend or other failure
	ExitBadSpecifier   = 2
	ExitBadReference   = 3 // neither a known name nor an integer
	ExitBadPosition    = 5
	ExitEnableNotFound = 8
	ExitInvalidValue   = 9 // bad value, or mode/scale/... target missing
)

// ErrorKind classifies why a run stopped
type ErrorKind int

const (
	ParseError ErrorKind = iota
	ResolveError
	ValidateError
	BackendError
)

func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "parse"
	case ResolveError:
		return "resolve"
	case ValidateError:
		return "validate"
	case BackendError:
		return "backend"
	default:
		return fmt.Sprintf("errorkind(%d)", int(k))
	}
}

// Error is a failure carrying the exit code it maps to
type Error struct {
	Kind      ErrorKind
	Code      int
	Specifier string // offending specifier, empty for backend errors
	Token     string // offending part of the specifier
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Specifier != "" && e.Token != "" && e.Token != e.Specifier:
		return fmt.Sprintf("%s: %q: %v", e.Specifier, e.Token, e.Err)
	case e.Specifier != "":
		return fmt.Sprintf("%s: %v", e.Specifier, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode maps err to a process status. Errors that are not *Error map to 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var merr *Error
	if errors.As(err, &merr) {
		return merr.Code
	}
	return ExitFailure
}

func newError(kind ErrorKind, code int, spec, token string, format string, args ...interface{}) *Error {
	return &Error{
		Kind:      kind,
		Code:      code,
		Specifier: spec,
		Token:     token,
		Err:       fmt.Errorf(format, args...),
	}
}
