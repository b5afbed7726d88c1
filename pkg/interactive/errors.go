package interactive

import "errors"

var (
	// ErrSessionNotFound is returned when an operation references an
	// unknown or already disposed session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotRunning is returned when input is sent to a session
	// whose process is not running. The input is rejected, never queued.
	ErrSessionNotRunning = errors.New("session is not running")

	// ErrInvalidState is returned when a transition or disposal is
	// attempted against a session in an incompatible state.
	ErrInvalidState = errors.New("invalid session state")

	// ErrEmptyArgv is returned when a session is started without a
	// command to run.
	ErrEmptyArgv = errors.New("argv must not be empty")
)
