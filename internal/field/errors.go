package field

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmounted indicates use of a field after Unmount.
	ErrUnmounted = errors.New("field: unmounted")

	// ErrNoSurface indicates Mount was called without a drawing surface.
	ErrNoSurface = errors.New("field: no surface")
)

// StageError wraps a frame failure with the stage and frame it happened in.
type StageError struct {
	Frame   uint64
	Stage   string
	Wrapped error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("field: frame %d %s: %v", e.Frame, e.Stage, e.Wrapped)
}

func (e *StageError) Unwrap() error {
	return e.Wrapped
}
