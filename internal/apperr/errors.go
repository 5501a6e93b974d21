// Package apperr holds the error taxonomy shared by the stores, the lifecycle
// orchestrator and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal error")
	ErrInvalidInput      = errors.New("invalid input")
)

// TransitionError is returned when a state machine has no edge From -> To.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %q to %q", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Transition builds a TransitionError for any string-typed status.
func Transition[S ~string](entity string, from, to S) error {
	return &TransitionError{Entity: entity, From: string(from), To: string(to)}
}

// kindError attaches a taxonomy sentinel to a human readable message.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func NotFound(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &kindError{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &kindError{kind: ErrInvalidState, msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) error {
	return &kindError{kind: ErrInvalidInput, msg: fmt.Sprintf(format, args...)}
}

// internalError keeps the infrastructure cause reachable through errors.Is
// while classifying the failure as ErrInternal.
type internalError struct {
	op    string
	cause error
}

func (e *internalError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.cause)
}

func (e *internalError) Unwrap() []error { return []error{ErrInternal, e.cause} }

// Internal wraps an infrastructure failure. Errors that already carry a
// taxonomy kind are returned unchanged.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &internalError{op: op, cause: err}
}

// Classified reports whether err already matches one of the taxonomy sentinels.
func Classified(err error) bool {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrInvalidState, ErrInvalidTransition,
		ErrConflict, ErrInternal, ErrInvalidInput} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
