package membershiprepo

import "errors"

var (
	// ErrDuplicate indicates a membership already exists for the
	// (group, user) pair. The unique key on the pair turns lost insert races
	// into this error rather than silent duplication.
	ErrDuplicate = errors.New("membership already exists")

	// ErrNotMember indicates no membership exists for the (group, user) pair.
	ErrNotMember = errors.New("membership not found")

	// ErrCreatorMembership indicates the membership belongs to the group's
	// creator, which must not be removed while they remain creator.
	ErrCreatorMembership = errors.New("creator membership cannot be removed")

	// ErrGroupNotFound indicates the group the membership references does
	// not exist.
	ErrGroupNotFound = errors.New("group not found")
)
