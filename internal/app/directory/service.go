// Package directory implements the user directory: onboarding external
// identities into user records and resolving them for the other workflows.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

type Service struct {
	users userrepo.Repository

	newUserID func() domain.UserID
}

func NewService(users userrepo.Repository) *Service {
	return &Service{
		users: users,
		newUserID: func() domain.UserID {
			return domain.UserID(uuid.NewString())
		},
	}
}

// SetNewUserIDForTest overrides user ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewUserIDForTest(fn func() domain.UserID) {
	if fn != nil {
		s.newUserID = fn
	}
}

type OnboardInput struct {
	ExternalID  domain.ExternalID
	DisplayName string
	Phone       string
}

// Onboard registers the external identity as a user, or returns the existing
// user when the identity is already bound. The returned bool is true only
// when a new record was created.
func (s *Service) Onboard(ctx context.Context, in OnboardInput) (domain.User, bool, error) {
	details := map[string]any{}
	ext := domain.ExternalID(domain.NormalizeText(string(in.ExternalID)))
	if ext == "" {
		details["clerk_user_id"] = "must be non-empty"
	}
	displayName := domain.NormalizeText(in.DisplayName)
	if displayName == "" {
		details["name"] = "must be non-empty"
	}
	phone := domain.NormalizeText(in.Phone)
	if phone == "" {
		details["phone"] = "must be non-empty"
	}
	if len(details) > 0 {
		return domain.User{}, false, &Error{
			Status:  400,
			Code:    "VALIDATION_ERROR",
			Message: "missing required fields",
			Details: details,
		}
	}

	if u, err := s.users.GetByExternalID(ctx, ext); err == nil {
		return toDomain(u), false, nil
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.User{}, false, err
	}

	now := time.Now().UTC()
	u := userrepo.User{
		ID:          s.newUserID(),
		ExternalID:  ext,
		DisplayName: displayName,
		Phone:       phone,
		Role:        domain.RoleMember,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrExternalIDTaken) {
			// Lost an onboarding race for the same identity: the other
			// request's row wins and this call degrades to "already exists".
			existing, gerr := s.users.GetByExternalID(ctx, ext)
			if gerr != nil {
				return domain.User{}, false, gerr
			}
			return toDomain(existing), false, nil
		}
		return domain.User{}, false, err
	}
	return toDomain(u), true, nil
}

// Resolve maps an external identity to its user record.
func (s *Service) Resolve(ctx context.Context, ext domain.ExternalID) (domain.User, error) {
	u, err := s.users.GetByExternalID(ctx, ext)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
		}
		return domain.User{}, err
	}
	return toDomain(u), nil
}

// IsAdmin reports whether the external identity belongs to a site admin.
// An unknown identity and a non-admin user are deliberately indistinguishable:
// both report false.
func (s *Service) IsAdmin(ctx context.Context, ext domain.ExternalID) (bool, error) {
	u, err := s.users.GetByExternalID(ctx, ext)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Role == domain.RoleAdmin, nil
}

func toDomain(u userrepo.User) domain.User {
	return domain.User{
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
