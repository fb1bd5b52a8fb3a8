package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every *InvalidInputError through errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError rejects a PCM buffer before any analysis runs.
type InvalidInputError struct {
	Reason string
	// Index is the offending sample index, or -1 when the problem is not
	// tied to a sample.
	Index int
}

func (e *InvalidInputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid input: %s at sample %d", e.Reason, e.Index)
	}
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(reason string) error {
	return &InvalidInputError{Reason: reason, Index: -1}
}
