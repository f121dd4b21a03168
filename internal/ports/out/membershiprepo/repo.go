package membershiprepo

import (
	"context"
	"time"

	"github.com/commonsclub/groups-api/internal/domain"
)

// Membership role values.
const (
	RoleMember = "member"
	// RoleAdmin marks the founding membership created at approval time.
	RoleAdmin = "admin"
)

// Membership is the persistence shape of one (group, user) relation.
type Membership struct {
	GroupID domain.GroupID
	UserID  domain.UserID

	MemberRole string
	JoinedAt   time.Time
}

// Repository provides access to the membership ledger.
type Repository interface {
	// Add inserts a membership. A lost race against a concurrent Add for the
	// same pair surfaces as ErrDuplicate.
	Add(ctx context.Context, m Membership) error

	// Remove deletes a membership. The group row is locked for the duration
	// of the check so the creator guard cannot race an ownership transfer:
	// removing the current creator fails ErrCreatorMembership, removing a
	// non-member fails ErrNotMember, an unknown group fails ErrGroupNotFound.
	Remove(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error

	IsMember(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (bool, error)

	// ListByGroup returns the group's members joined with user identity
	// fields. Order is unspecified. A group with no members (or an unknown
	// group) yields an empty slice, not an error.
	ListByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.GroupMember, error)
}
