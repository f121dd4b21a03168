package apprepo

import "errors"

var (
	// ErrNotFound indicates the requested application does not exist.
	ErrNotFound = errors.New("application not found")

	// ErrAlreadyProcessed indicates the application has already reached a
	// terminal state. Re-approval and re-rejection are rejected, never
	// silently absorbed.
	ErrAlreadyProcessed = errors.New("application already processed")
)
