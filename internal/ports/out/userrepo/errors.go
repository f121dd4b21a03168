package userrepo

import "errors"

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrExternalIDTaken indicates a user already exists for the provided
	// external identity.
	ErrExternalIDTaken = errors.New("external identity already bound")
)
