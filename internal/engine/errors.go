package engine

import "errors"

var (
	// ErrEmptyInput rejects a blank turn before any work starts.
	ErrEmptyInput = errors.New("engine: input is empty")

	// ErrTurnInFlight rejects a turn while another one is still resolving.
	ErrTurnInFlight = errors.New("engine: a turn is already in flight")

	// ErrNoGenerator rejects a turn when no generation session exists.
	ErrNoGenerator = errors.New("engine: no story generator configured")

	// ErrTurnFailed reports an unrecoverable turn. The session's visible
	// chat already carries the apology message; no snapshot was committed.
	ErrTurnFailed = errors.New("engine: turn failed")

	// ErrSessionNotFound reports an unknown session ID.
	ErrSessionNotFound = errors.New("engine: session not found")
)
