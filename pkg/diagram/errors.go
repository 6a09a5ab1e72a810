package diagram

import "errors"

var (
	// ErrInvalidKind is returned when placing a component with no kind, or
	// connecting with an unknown connection kind.
	ErrInvalidKind = errors.New("invalid kind")

	// ErrUnknownEntity is returned when an operation names a component,
	// connection, stroke or anchor that does not exist.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrNotToggleable is returned when toggling a component without
	// on/off state.
	ErrNotToggleable = errors.New("component is not toggleable")

	// ErrMalformedSnapshot is returned when a document is missing required
	// fields or holds dangling references.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	ErrDuplicateID   = errors.New("duplicate id")
	ErrSessionActive = errors.New("another session is active")
	ErrNoSession     = errors.New("no active session")
)
