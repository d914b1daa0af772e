// Package common defines shared constants and sentinel errors used across
// client and server layers of SpeakFluent. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Input validation, raised before any I/O is attempted.
	ErrValidation = errors.New("validation error")

	// Capture-device acquisition failures.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// Malformed audio format descriptor passed to the encoder.
	ErrEncoding = errors.New("encoding error")

	// Network or backend failure of the remote service.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// Credentials rejected by every available backend.
	ErrAuthentication = errors.New("authentication failed")

	// Operation invoked outside its valid state-machine state.
	ErrInvalidState = errors.New("invalid state")

	// Generic internal failures and token problems.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")

	ErrAlreadyExists = errors.New("already exists")
)
