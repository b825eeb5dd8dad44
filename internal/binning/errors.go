// Package binning counts display labels per first letter of their visible text.
package binning

import (
	"errors"
	"fmt"
)

var (
	errMissingAnchor = errors.New("missing anchor element")
	errEmptyAnchor   = errors.New("empty anchor text")
)

// Error reports a display label that does not carry usable anchor text.
type Error struct {
	Index int // position in the input slice
	Label string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("binning error at index %d: %v: %q", e.Index, e.Cause, e.Label)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
