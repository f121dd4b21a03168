package apprepo

import (
	"context"
	"time"

	"github.com/commonsclub/groups-api/internal/domain"
)

// Application is the persistence shape used by the application repository.
type Application struct {
	ID          domain.ApplicationID
	ApplicantID domain.UserID

	Name        string
	Description string
	ImageURL    *string

	Status domain.ApplicationStatus

	ReviewerID *domain.UserID
	ReviewedAt *time.Time

	CreatedAt time.Time
}

// Summary is an application joined with its applicant's display name.
type Summary struct {
	Application
	ApplicantName string
}

// Repository provides access to persisted group applications.
//
// Result ordering expectations:
// - ListPending returns summaries ordered by creation time descending.
type Repository interface {
	Create(ctx context.Context, a Application) error

	GetByID(ctx context.Context, id domain.ApplicationID) (Application, error)

	// ListPending returns applications awaiting review. The status filter
	// accepts both "pending" and the legacy "new" tag.
	ListPending(ctx context.Context) ([]Summary, error)

	// Approve atomically: verifies the application is still pending (the row
	// is locked for the check), creates the interest group under groupID
	// with the applicant as creator, inserts the applicant's founding
	// membership with the admin member role, and marks the application
	// approved with the reviewer and timestamp. A non-pending application
	// fails ErrAlreadyProcessed with no side effects.
	Approve(ctx context.Context, id domain.ApplicationID, groupID domain.GroupID, reviewerID domain.UserID, now time.Time) error

	// Reject marks a pending application rejected with the reviewer and
	// timestamp. Same pending guard as Approve; no group side effects.
	Reject(ctx context.Context, id domain.ApplicationID, reviewerID domain.UserID, now time.Time) error
}
