// Package applications implements the group application and approval
// workflow: a pending application either becomes an interest group with its
// founding membership, or is rejected.
package applications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/apprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

type Service struct {
	apps  apprepo.Repository
	users userrepo.Repository

	newApplicationID func() domain.ApplicationID
	newGroupID       func() domain.GroupID
}

func NewService(apps apprepo.Repository, users userrepo.Repository) *Service {
	return &Service{
		apps:  apps,
		users: users,
		newApplicationID: func() domain.ApplicationID {
			return domain.ApplicationID(uuid.NewString())
		},
		newGroupID: func() domain.GroupID {
			return domain.GroupID(uuid.NewString())
		},
	}
}

// SetIDGeneratorsForTest overrides ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetIDGeneratorsForTest(newAppID func() domain.ApplicationID, newGroupID func() domain.GroupID) {
	if newAppID != nil {
		s.newApplicationID = newAppID
	}
	if newGroupID != nil {
		s.newGroupID = newGroupID
	}
}

type ApplyInput struct {
	Name        string
	Description string
	ImageURL    *string
}

// Apply files a group-creation application for the caller.
func (s *Service) Apply(ctx context.Context, ext domain.ExternalID, in ApplyInput) (domain.Application, error) {
	applicant, err := s.users.GetByExternalID(ctx, ext)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.Application{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
		}
		return domain.Application{}, err
	}

	details := map[string]any{}
	name := domain.NormalizeText(in.Name)
	if name == "" {
		details["name"] = "must be non-empty"
	}
	description := domain.NormalizeText(in.Description)
	if description == "" {
		details["description"] = "must be non-empty"
	}
	if len(details) > 0 {
		return domain.Application{}, &Error{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "missing required fields",
			Details: details,
		}
	}

	a := apprepo.Application{
		ID:          s.newApplicationID(),
		ApplicantID: applicant.ID,
		Name:        name,
		Description: description,
		ImageURL:    in.ImageURL,
		Status:      domain.ApplicationPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.apps.Create(ctx, a); err != nil {
		return domain.Application{}, err
	}
	return toDomain(a), nil
}

// ListPending returns the review queue, newest first.
func (s *Service) ListPending(ctx context.Context) ([]domain.ApplicationSummary, error) {
	as, err := s.apps.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ApplicationSummary, 0, len(as))
	for _, a := range as {
		out = append(out, domain.ApplicationSummary{
			ID:            a.ID,
			ApplicantID:   a.ApplicantID,
			ApplicantName: a.ApplicantName,
			Name:          a.Name,
			Description:   a.Description,
			ImageURL:      a.ImageURL,
			Status:        a.Status,
			CreatedAt:     a.CreatedAt,
		})
	}
	return out, nil
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apprepo.ErrNotFound) {
			return domain.Application{}, errNotFound()
		}
		return domain.Application{}, err
	}
	return toDomain(a), nil
}

// Approve turns a pending application into an interest group plus its
// founding membership and returns the new group's ID. Only site admins may
// approve; a second approval of the same application fails, it is never a
// silent success.
func (s *Service) Approve(ctx context.Context, id domain.ApplicationID, actingExt domain.ExternalID) (domain.GroupID, error) {
	reviewer, err := s.requireAdmin(ctx, actingExt)
	if err != nil {
		return "", err
	}

	groupID := s.newGroupID()
	if err := s.apps.Approve(ctx, id, groupID, reviewer.ID, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, apprepo.ErrNotFound):
			return "", errNotFound()
		case errors.Is(err, apprepo.ErrAlreadyProcessed):
			return "", errAlreadyProcessed()
		}
		return "", err
	}
	return groupID, nil
}

// Reject marks a pending application rejected. Only site admins may reject.
func (s *Service) Reject(ctx context.Context, id domain.ApplicationID, actingExt domain.ExternalID) error {
	reviewer, err := s.requireAdmin(ctx, actingExt)
	if err != nil {
		return err
	}

	if err := s.apps.Reject(ctx, id, reviewer.ID, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, apprepo.ErrNotFound):
			return errNotFound()
		case errors.Is(err, apprepo.ErrAlreadyProcessed):
			return errAlreadyProcessed()
		}
		return err
	}
	return nil
}

// requireAdmin resolves the acting identity and demands the admin role. An
// unknown identity fails exactly like a non-admin user.
func (s *Service) requireAdmin(ctx context.Context, ext domain.ExternalID) (userrepo.User, error) {
	u, err := s.users.GetByExternalID(ctx, ext)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return userrepo.User{}, errForbidden()
		}
		return userrepo.User{}, err
	}
	if u.Role != domain.RoleAdmin {
		return userrepo.User{}, errForbidden()
	}
	return u, nil
}

func toDomain(a apprepo.Application) domain.Application {
	return domain.Application{
		ID:          a.ID,
		ApplicantID: a.ApplicantID,
		Name:        a.Name,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Status:      a.Status,
		ReviewerID:  a.ReviewerID,
		ReviewedAt:  a.ReviewedAt,
		CreatedAt:   a.CreatedAt,
	}
}

func errNotFound() *Error {
	return &Error{Status: 404, Code: "APPLICATION_NOT_FOUND", Message: "application not found"}
}

func errAlreadyProcessed() *Error {
	return &Error{Status: 400, Code: "ALREADY_PROCESSED", Message: "application has already been reviewed"}
}

func errForbidden() *Error {
	return &Error{Status: 403, Code: "ADMIN_REQUIRED", Message: "only site admins can review applications"}
}
