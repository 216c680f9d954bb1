package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput is returned when a required table or series is absent (fatal)
	ErrMissingInput = errors.New("missing required input")

	// ErrEmptyResult is returned when a filter or selection yields zero rows
	ErrEmptyResult = errors.New("empty result")

	// ErrMisaligned is returned when tables do not share the expected date/symbol layout
	ErrMisaligned = errors.New("misaligned input")
)

// MissingInputError names the absent input file
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing required input %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("missing required input %s", e.Path)
}

// Unwrap lets errors.Is match ErrMissingInput
func (e *MissingInputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMissingInput, e.Err}
	}
	return []error{ErrMissingInput}
}
