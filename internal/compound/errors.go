// ABOUTME: Lookup error taxonomy shared by every compound.Service implementation
// ABOUTME: Sentinel kinds plus a LookupError wrapper that keeps operation context

package compound

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup term matched nothing.
	ErrNotFound = errors.New("compound not found")

	// ErrUnavailable is returned on network failure, timeout, non-success
	// status, or a malformed upstream payload.
	ErrUnavailable = errors.New("compound service unavailable")

	// ErrInvalidInput is reserved for structured validation of lookup input.
	ErrInvalidInput = errors.New("invalid lookup input")
)

// LookupError records which operation failed, for what input, and why.
type LookupError struct {
	Op   string // "resolve_name", "resolve_id", "random", "similar"
	Term string
	Kind error // one of the sentinel errors
	Err  error // underlying cause, may be nil
}

// Error implements error.
func (e *LookupError) Error() string {
	msg := e.Op
	if e.Term != "" {
		msg += fmt.Sprintf(" %q", e.Term)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *LookupError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound builds a LookupError of kind ErrNotFound.
func NotFound(op, term string) error {
	return &LookupError{Op: op, Term: term, Kind: ErrNotFound}
}

// Unavailable builds a LookupError of kind ErrUnavailable.
func Unavailable(op, term string, cause error) error {
	return &LookupError{Op: op, Term: term, Kind: ErrUnavailable, Err: cause}
}

// KindOf classifies err into one of the sentinel kinds. Context expiry and
// anything unrecognized count as ErrUnavailable; nil yields nil.
func KindOf(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrInvalidInput):
		return ErrInvalidInput
	default:
		return ErrUnavailable
	}
}
