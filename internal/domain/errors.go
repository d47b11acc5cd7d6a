// Package domain — error taxonomy.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound — no task with the given identifier exists.
	ErrTaskNotFound = errors.New("task not found")

	// ErrValidation — bad task type, illegal input format, or a
	// malformed/missing required field. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedFormat — the requested output format cannot be
	// produced for the task type's result shape.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrUpstream — the mapping provider rejected the request or was
	// unreachable.
	ErrUpstream = errors.New("upstream provider error")

	// ErrInvalidTransition — a lifecycle transition was attempted from a
	// state that does not allow it. Indicates a core bug, not client error.
	ErrInvalidTransition = errors.New("invalid task transition")
)

// UpstreamError carries the provider's own status and message when the
// upstream call fails. It unwraps to ErrUpstream.
type UpstreamError struct {
	Status  string // provider status code, e.g. "REQUEST_DENIED"; empty on transport failure
	Message string
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != "" && e.Message != "":
		return fmt.Sprintf("upstream provider error: %s: %s", e.Status, e.Message)
	case e.Status != "":
		return fmt.Sprintf("upstream provider error: %s", e.Status)
	default:
		return fmt.Sprintf("upstream provider error: %s", e.Message)
	}
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }
