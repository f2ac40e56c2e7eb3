package grid3d

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input to a constructor or setter. The
	// grid is left unchanged whenever it is returned.
	ErrValidation = errors.New("invalid grid input")
	// ErrIndex marks out-of-range cell, pillar or layer addressing.
	ErrIndex = errors.New("index out of range")
	// ErrPropertyMismatch marks an attached property that could not follow a
	// structural transform.
	ErrPropertyMismatch = errors.New("property mismatch")
)

// PropertyMismatchError identifies the attached property that failed to
// follow a transform. The grid is not modified when it is returned.
type PropertyMismatchError struct {
	Property string
	Op       string
	Err      error
}

func (e *PropertyMismatchError) Error() string {
	return fmt.Sprintf("%s: property %q: %v", e.Op, e.Property, e.Err)
}

func (e *PropertyMismatchError) Unwrap() []error {
	return []error{ErrPropertyMismatch, e.Err}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func indexf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIndex, fmt.Sprintf(format, args...))
}
