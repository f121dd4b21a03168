package grouprepo

import "errors"

var (
	// ErrNotFound indicates the requested group does not exist.
	ErrNotFound = errors.New("group not found")

	// ErrAlreadyExists indicates a group already exists with the provided ID.
	ErrAlreadyExists = errors.New("group already exists")

	// ErrCreatorMismatch indicates the group's creator changed between the
	// caller's read and the write (the optimistic expected-creator check
	// failed inside the transaction).
	ErrCreatorMismatch = errors.New("group creator changed")

	// ErrNewOwnerNotMember indicates an ownership transfer named a new owner
	// who holds no membership in the group and auto-enrollment was not
	// requested.
	ErrNewOwnerNotMember = errors.New("new owner is not a member")

	// ErrRemoveCreator indicates an edit tried to remove the group creator's
	// membership.
	ErrRemoveCreator = errors.New("cannot remove creator membership")

	// ErrRemoveNotMember indicates an edit tried to remove a user who holds
	// no membership in the group.
	ErrRemoveNotMember = errors.New("removal target is not a member")
)
