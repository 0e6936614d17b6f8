// Package errs contains sentinel errors and the error taxonomy shared by the client layers.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrValidation indicates input rejected locally before any network call.
	ErrValidation = errors.New("validation")

	// ErrUnauthorized indicates the backend rejected the session credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested entity does not exist on the backend.
	ErrNotFound = errors.New("not found")

	// ErrPipelineHalt indicates a workflow stopped advancing at a failed stage.
	ErrPipelineHalt = errors.New("pipeline halted")

	// ErrNoSession indicates an operation needs an established session.
	ErrNoSession = errors.New("no active session (login required)")

	// ErrInvalidState indicates a workflow transition that is not allowed from the current state.
	ErrInvalidState = errors.New("invalid state")
)
