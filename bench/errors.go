package bench

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRange is returned when the lookup table has no rows to sample.
	ErrEmptyRange = errors.New("identifier range is empty")
	// ErrInvalidRange is returned when min > max.
	ErrInvalidRange = errors.New("invalid identifier range")
)

// QueryError wraps a database failure. Iteration is -1 outside the workload loop.
type QueryError struct {
	Op        string
	Iteration int
	Err       error
}

func (e *QueryError) Error() string {
	if e.Iteration >= 0 {
		return fmt.Sprintf("%s (iteration %d): %v", e.Op, e.Iteration, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
