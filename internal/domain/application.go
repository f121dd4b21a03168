package domain

import "time"

// ApplicationStatus is the state of a group-creation application.
//
// pending is the only non-terminal state. Some historical rows carry the
// legacy tag "new", which readers treat as pending.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"

	// ApplicationLegacyNew is an obsolete spelling of pending still present
	// in old rows. It is never written by this codebase.
	ApplicationLegacyNew ApplicationStatus = "new"
)

// IsPending reports whether the status counts as awaiting review.
func (s ApplicationStatus) IsPending() bool {
	return s == ApplicationPending || s == ApplicationLegacyNew
}

// Application is a request to create a new interest group.
type Application struct {
	ID          ApplicationID
	ApplicantID UserID

	Name        string
	Description string
	ImageURL    *string

	Status ApplicationStatus

	// ReviewerID and ReviewedAt are set when the application reaches a
	// terminal state; nil while pending.
	ReviewerID *UserID
	ReviewedAt *time.Time

	CreatedAt time.Time
}

// ApplicationSummary is the pending-queue listing shape: the application
// joined with the applicant's display name.
type ApplicationSummary struct {
	ID            ApplicationID
	ApplicantID   UserID
	ApplicantName string
	Name          string
	Description   string
	ImageURL      *string
	Status        ApplicationStatus
	CreatedAt     time.Time
}
