package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSide indicates a grid side too small to address.
	ErrInvalidSide = errors.New("compute: invalid grid side")

	// ErrUnavailable indicates the backend cannot run on this host.
	ErrUnavailable = errors.New("compute: backend unavailable")

	// ErrKernelUnsupported indicates the kernel has no form the backend can run.
	ErrKernelUnsupported = errors.New("compute: kernel not supported by backend")

	// ErrReleased indicates use of a simulation after Release.
	ErrReleased = errors.New("compute: simulation released")
)

// InitError wraps a backend initialisation failure with the stage that failed.
type InitError struct {
	Backend string
	Stage   string
	Wrapped error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("compute: %s %s: %v", e.Backend, e.Stage, e.Wrapped)
}

func (e *InitError) Unwrap() error {
	return e.Wrapped
}
