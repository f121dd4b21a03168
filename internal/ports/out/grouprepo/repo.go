package grouprepo

import (
	"context"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/commonsclub/groups-api/internal/domain"
)

// Group is the persistence shape used by the group repository. It is an
// internal record, not an HTTP DTO.
type Group struct {
	ID domain.GroupID

	Name        string
	Description string
	// ImageURL is optional; nil means unset.
	ImageURL *string

	CreatorID domain.UserID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is a group joined with its creator's display name, used for
// listings.
type Summary struct {
	Group
	CreatorName string
}

// EditCommand carries every mutation a single group edit may perform. The
// adapter applies the whole command as one atomic unit: verify expected
// creator, transfer ownership (enrolling the new owner if needed), remove a
// membership, update fields, in that order. Any failed step aborts the whole
// command with no partial effect.
type EditCommand struct {
	GroupID domain.GroupID

	// ExpectCreatorID is the creator the caller observed when it authorized
	// the edit. A mismatch inside the transaction fails with
	// ErrCreatorMismatch instead of acting on stale state.
	ExpectCreatorID domain.UserID

	// Name and Description update the field when specified and non-null.
	Name        nullable.Nullable[string]
	Description nullable.Nullable[string]
	// ImageURL updates the field when specified; explicit null clears it.
	ImageURL nullable.Nullable[string]

	// NewOwnerID, when set, transfers ownership to that user, creating a
	// membership for them first if they hold none.
	NewOwnerID *domain.UserID

	// RemoveUserID, when set, deletes that user's membership. Removing the
	// (post-transfer) creator fails with ErrRemoveCreator; removing a
	// non-member fails with ErrRemoveNotMember.
	RemoveUserID *domain.UserID

	UpdatedAt time.Time
}

// Repository provides access to persisted interest groups.
//
// Result ordering expectations:
// - List returns summaries ordered by name ascending (case-insensitive).
type Repository interface {
	// Create inserts a new group. Production code only creates groups
	// through application approval; this exists for that path's adapters and
	// for test seeding.
	Create(ctx context.Context, g Group) error

	GetByID(ctx context.Context, id domain.GroupID) (Group, error)

	List(ctx context.Context) ([]Summary, error)

	// TransferOwnership atomically re-points the group's creator to
	// newOwnerID. The expected-creator check and the new owner's membership
	// check (or enrollment, when enrollIfAbsent is set) happen inside the
	// same transaction as the update. The outgoing creator's membership is
	// left untouched.
	TransferOwnership(ctx context.Context, groupID domain.GroupID, expectCreatorID, newOwnerID domain.UserID, enrollIfAbsent bool, now time.Time) error

	// Edit applies an EditCommand as a single atomic unit.
	Edit(ctx context.Context, cmd EditCommand) error
}
