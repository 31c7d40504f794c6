package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSettings is wrapped by every Validate failure.
	ErrInvalidSettings = errors.New("config: invalid settings")

	// ErrUnknownPreset is returned for a preset name that does not exist.
	ErrUnknownPreset = errors.New("config: unknown preset")
)

// FieldError names the offending settings field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidSettings, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidSettings }

// Validate rejects settings the frame loop cannot run with.
func (s *Settings) Validate() error {
	switch {
	case s.Width <= 0:
		return &FieldError{Field: "width", Reason: "must be positive"}
	case s.Height <= 0:
		return &FieldError{Field: "height", Reason: "must be positive"}
	case s.TargetFPS <= 0:
		return &FieldError{Field: "target_fps", Reason: "must be positive"}
	case s.Governor.FrameBudget <= 0:
		return &FieldError{Field: "governor.frame_budget", Reason: "must be positive"}
	case s.Governor.Window <= 0:
		return &FieldError{Field: "governor.window", Reason: "must be positive"}
	}
	switch s.Backend {
	case "auto", "cpu", "opengl":
	default:
		return &FieldError{Field: "backend", Reason: fmt.Sprintf("unknown backend %q", s.Backend)}
	}
	return nil
}
