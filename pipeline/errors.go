package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the hard failures a caller can see. Provider errors
// and synthesis failures never surface here; they are absorbed by retry and
// fallback.
type ErrorKind string

const (
	// KindInvalidGoal means the goal text was unusable. Fatal to the
	// request, surfaced immediately, before any external call.
	KindInvalidGoal ErrorKind = "invalid_goal"

	// KindInternal means the offline fallback generator itself failed,
	// which should not occur for well-formed goals.
	KindInternal ErrorKind = "internal"
)

// Error is the typed failure returned by the pipeline.
type Error struct {
	Kind ErrorKind
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("planning failed (%s): %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// NewError wraps an error with a pipeline classification.
func NewError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, err: err}
}

// KindOf extracts the pipeline error kind, returning KindInternal for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// IsInvalidGoal reports whether err is a goal rejection.
func IsInvalidGoal(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindInvalidGoal
}
