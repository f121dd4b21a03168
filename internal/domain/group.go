package domain

import "time"

// Group is the domain representation of an interest group.
//
// CreatorID always references an existing user who also holds a membership in
// the group; the membership ledger refuses to remove it while they remain
// creator.
type Group struct {
	ID GroupID

	Name        string
	Description string
	// ImageURL is optional; nil means unset.
	ImageURL *string

	CreatorID UserID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupSummary is the listing shape: the group joined with its creator's
// display name.
type GroupSummary struct {
	ID          GroupID
	Name        string
	Description string
	ImageURL    *string
	CreatorID   UserID
	CreatorName string
}

// GroupMember is one row of a group's member listing.
type GroupMember struct {
	UserID      UserID
	ExternalID  ExternalID
	DisplayName string
	// MemberRole is the membership-level role ("admin" for the founding
	// membership, "member" otherwise).
	MemberRole string
	JoinedAt   time.Time
}
