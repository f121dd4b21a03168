package groups

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/commonsclub/groups-api/internal/domain"
)

// Detail is the single-group read model: the group joined with its creator's
// display name.
type Detail struct {
	ID          domain.GroupID
	Name        string
	Description string
	ImageURL    *string
	CreatorID   domain.UserID
	CreatorName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EditInput carries a group edit request. Name, Description and ImageURL are
// tri-state: omitted leaves the field alone, ImageURL additionally accepts
// explicit null to clear. Unrecognized request fields were dropped at the
// HTTP layer.
type EditInput struct {
	Name        nullable.Nullable[string]
	Description nullable.Nullable[string]
	ImageURL    nullable.Nullable[string]

	// NewOwnerID transfers group ownership to the given user, enrolling them
	// as a member first when they hold no membership.
	NewOwnerID *domain.UserID

	// RemoveMemberID removes the given user's membership.
	RemoveMemberID *domain.UserID
}

func nullableOf(v string) nullable.Nullable[string] {
	return nullable.NewNullableWithValue(v)
}

func (in EditInput) empty() bool {
	return !in.Name.IsSpecified() &&
		!in.Description.IsSpecified() &&
		!in.ImageURL.IsSpecified() &&
		in.NewOwnerID == nil &&
		in.RemoveMemberID == nil
}
