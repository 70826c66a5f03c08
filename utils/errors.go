package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// SizeMismatchError is returned when a vector written to or read from a fixed-size slot does not
// have the slot's length. The slot is left unmodified.
type SizeMismatchError struct {
	Name     string
	Got      int
	Expected int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for %q: got %d values, expected %d", e.Name, e.Got, e.Expected)
}

// NewSizeMismatchError is used when a vector has the wrong length for the named slot.
func NewSizeMismatchError(name string, got, expected int) error {
	return &SizeMismatchError{Name: name, Got: got, Expected: expected}
}

// IsSizeMismatch reports whether err is, or wraps, a SizeMismatchError.
func IsSizeMismatch(err error) bool {
	var target *SizeMismatchError
	return errors.As(err, &target)
}

// NewNonPositiveError is used when a duration, time step or size that must be strictly positive
// is not.
func NewNonPositiveError(name string, value float64) error {
	return errors.Errorf("%s must be positive, got %v", name, value)
}
