package sketch

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the category shared by every caller contract violation.
var ErrInvalidInput = errors.New("invalid input")

// Specific kinds of invalid input. All of them satisfy errors.Is(err, ErrInvalidInput).
var (
	ErrMismatchedCoordinates = fmt.Errorf("%w: mismatched coordinate lengths", ErrInvalidInput)
	ErrColorOutOfRange       = fmt.Errorf("%w: color channel out of range", ErrInvalidInput)
	ErrNonFiniteCoordinate   = fmt.Errorf("%w: non-finite coordinate", ErrInvalidInput)
)
