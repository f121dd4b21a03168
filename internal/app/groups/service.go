// Package groups implements the group registry, the membership ledger and the
// ownership transfer protocol.
package groups

import (
	"context"
	"errors"
	"time"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

type Service struct {
	groups      grouprepo.Repository
	memberships membershiprepo.Repository
	users       userrepo.Repository
}

func NewService(groups grouprepo.Repository, memberships membershiprepo.Repository, users userrepo.Repository) *Service {
	return &Service{
		groups:      groups,
		memberships: memberships,
		users:       users,
	}
}

// ListGroups returns all groups ordered by name ascending.
func (s *Service) ListGroups(ctx context.Context) ([]domain.GroupSummary, error) {
	gs, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.GroupSummary, 0, len(gs))
	for _, g := range gs {
		out = append(out, domain.GroupSummary{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			ImageURL:    g.ImageURL,
			CreatorID:   g.CreatorID,
			CreatorName: g.CreatorName,
		})
	}
	return out, nil
}

// GetGroup returns the detail view for one group.
func (s *Service) GetGroup(ctx context.Context, id domain.GroupID) (Detail, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, grouprepo.ErrNotFound) {
			return Detail{}, errGroupNotFound()
		}
		return Detail{}, err
	}
	return s.toDetail(ctx, g)
}

// GetCreator returns the user currently holding the group's ownership.
func (s *Service) GetCreator(ctx context.Context, id domain.GroupID) (domain.User, error) {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, grouprepo.ErrNotFound) {
			return domain.User{}, errGroupNotFound()
		}
		return domain.User{}, err
	}
	creator, err := s.users.GetByID(ctx, g.CreatorID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(creator), nil
}

// Members lists the group's members. A group with no members, including a
// group that does not exist, yields an empty slice. The missing existence
// check mirrors long-standing API behavior; callers treat the empty list as
// authoritative.
func (s *Service) Members(ctx context.Context, id domain.GroupID) ([]domain.GroupMember, error) {
	return s.memberships.ListByGroup(ctx, id)
}

// Join adds the caller to the group's membership ledger.
func (s *Service) Join(ctx context.Context, groupID domain.GroupID, ext domain.ExternalID) (domain.GroupMember, error) {
	u, err := s.resolve(ctx, ext)
	if err != nil {
		return domain.GroupMember{}, err
	}

	m := membershiprepo.Membership{
		GroupID:    groupID,
		UserID:     u.ID,
		MemberRole: membershiprepo.RoleMember,
		JoinedAt:   time.Now().UTC(),
	}
	if err := s.memberships.Add(ctx, m); err != nil {
		switch {
		case errors.Is(err, membershiprepo.ErrGroupNotFound):
			return domain.GroupMember{}, errGroupNotFound()
		case errors.Is(err, membershiprepo.ErrDuplicate):
			return domain.GroupMember{}, &Error{Status: 409, Code: "ALREADY_MEMBER", Message: "user is already a member of this group"}
		}
		return domain.GroupMember{}, err
	}
	return domain.GroupMember{
		UserID:      u.ID,
		ExternalID:  u.ExternalID,
		DisplayName: u.DisplayName,
		MemberRole:  m.MemberRole,
		JoinedAt:    m.JoinedAt,
	}, nil
}

// Leave removes the caller from the group's membership ledger. The group
// creator can never leave; they must transfer ownership first.
func (s *Service) Leave(ctx context.Context, groupID domain.GroupID, ext domain.ExternalID) error {
	u, err := s.resolve(ctx, ext)
	if err != nil {
		return err
	}

	if err := s.memberships.Remove(ctx, groupID, u.ID); err != nil {
		switch {
		case errors.Is(err, membershiprepo.ErrGroupNotFound):
			return errGroupNotFound()
		case errors.Is(err, membershiprepo.ErrCreatorMembership):
			return &Error{Status: 403, Code: "CREATOR_CANNOT_LEAVE", Message: "group creator must transfer ownership before leaving"}
		case errors.Is(err, membershiprepo.ErrNotMember):
			return &Error{Status: 409, Code: "NOT_MEMBER", Message: "user is not a member of this group"}
		}
		return err
	}
	return nil
}

// TransferOwner is the dedicated ownership transfer: only the current creator
// may call it (site admins have no override on this path), and the new owner
// must already hold a membership.
func (s *Service) TransferOwner(ctx context.Context, groupID domain.GroupID, actingExt domain.ExternalID, newOwnerID domain.UserID) (Detail, error) {
	actor, err := s.users.GetByExternalID(ctx, actingExt)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Detail{}, errNotOwner()
		}
		return Detail{}, err
	}

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, grouprepo.ErrNotFound) {
			return Detail{}, errGroupNotFound()
		}
		return Detail{}, err
	}
	if actor.ID != g.CreatorID {
		return Detail{}, errNotOwner()
	}

	err = s.groups.TransferOwnership(ctx, groupID, g.CreatorID, newOwnerID, false, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, grouprepo.ErrNotFound):
			return Detail{}, errGroupNotFound()
		case errors.Is(err, grouprepo.ErrNewOwnerNotMember):
			return Detail{}, &Error{Status: 409, Code: "NEW_OWNER_NOT_MEMBER", Message: "designated owner is not a member of this group"}
		case errors.Is(err, grouprepo.ErrCreatorMismatch):
			return Detail{}, errOwnershipChanged()
		}
		return Detail{}, err
	}

	updated, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return Detail{}, err
	}
	return s.toDetail(ctx, updated)
}

// Edit applies a compound group mutation: field updates, an embedded
// ownership transfer (with auto-enrollment of the new owner) and/or a member
// removal, authorized for the group creator or a site admin.
func (s *Service) Edit(ctx context.Context, groupID domain.GroupID, actingExt domain.ExternalID, in EditInput) (Detail, error) {
	actor, err := s.users.GetByExternalID(ctx, actingExt)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Detail{}, errNotAuthorized()
		}
		return Detail{}, err
	}

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, grouprepo.ErrNotFound) {
			return Detail{}, errGroupNotFound()
		}
		return Detail{}, err
	}
	if actor.Role != domain.RoleAdmin && actor.ID != g.CreatorID {
		return Detail{}, errNotAuthorized()
	}

	if in.empty() {
		return Detail{}, &Error{Status: 400, Code: "NO_CHANGES", Message: "request contains no recognized field or action"}
	}

	cmd := grouprepo.EditCommand{
		GroupID:         groupID,
		ExpectCreatorID: g.CreatorID,
		ImageURL:        in.ImageURL,
		NewOwnerID:      in.NewOwnerID,
		RemoveUserID:    in.RemoveMemberID,
		UpdatedAt:       time.Now().UTC(),
	}

	if in.Name.IsSpecified() {
		name, verr := requireText(in.Name, "name")
		if verr != nil {
			return Detail{}, verr
		}
		cmd.Name = nullableOf(name)
	}
	if in.Description.IsSpecified() {
		desc, verr := requireText(in.Description, "description")
		if verr != nil {
			return Detail{}, verr
		}
		cmd.Description = nullableOf(desc)
	}

	if in.NewOwnerID != nil {
		if *in.NewOwnerID == g.CreatorID {
			return Detail{}, &Error{Status: 400, Code: "SELF_TRANSFER", Message: "user already owns this group"}
		}
		if _, err := s.users.GetByID(ctx, *in.NewOwnerID); err != nil {
			if errors.Is(err, userrepo.ErrNotFound) {
				return Detail{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "designated owner does not exist"}
			}
			return Detail{}, err
		}
	}

	if err := s.groups.Edit(ctx, cmd); err != nil {
		switch {
		case errors.Is(err, grouprepo.ErrNotFound):
			return Detail{}, errGroupNotFound()
		case errors.Is(err, grouprepo.ErrCreatorMismatch):
			return Detail{}, errOwnershipChanged()
		case errors.Is(err, grouprepo.ErrRemoveCreator):
			return Detail{}, &Error{Status: 403, Code: "CREATOR_CANNOT_BE_REMOVED", Message: "group creator cannot be removed from membership"}
		case errors.Is(err, grouprepo.ErrRemoveNotMember):
			return Detail{}, &Error{Status: 404, Code: "NOT_MEMBER", Message: "removal target is not a member of this group"}
		}
		return Detail{}, err
	}

	updated, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return Detail{}, err
	}
	return s.toDetail(ctx, updated)
}

// --- helpers ---

func (s *Service) resolve(ctx context.Context, ext domain.ExternalID) (userrepo.User, error) {
	u, err := s.users.GetByExternalID(ctx, ext)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return userrepo.User{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
		}
		return userrepo.User{}, err
	}
	return u, nil
}

func (s *Service) toDetail(ctx context.Context, g grouprepo.Group) (Detail, error) {
	creatorName := ""
	if creator, err := s.users.GetByID(ctx, g.CreatorID); err == nil {
		creatorName = creator.DisplayName
	}
	return Detail{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		ImageURL:    g.ImageURL,
		CreatorID:   g.CreatorID,
		CreatorName: creatorName,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}, nil
}

func requireText(n interface {
	IsNull() bool
	MustGet() string
}, field string) (string, *Error) {
	if n.IsNull() {
		return "", &Error{Status: 400, Code: "VALIDATION_ERROR", Message: "invalid " + field, Details: map[string]any{field: "cannot be null"}}
	}
	v := domain.NormalizeText(n.MustGet())
	if v == "" {
		return "", &Error{Status: 400, Code: "VALIDATION_ERROR", Message: "invalid " + field, Details: map[string]any{field: "must be non-empty"}}
	}
	return v, nil
}

func toDomainUser(u userrepo.User) domain.User {
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

func errGroupNotFound() *Error {
	return &Error{Status: 404, Code: "GROUP_NOT_FOUND", Message: "group not found"}
}

func errNotOwner() *Error {
	return &Error{Status: 403, Code: "NOT_OWNER", Message: "only the group creator can transfer ownership"}
}

func errNotAuthorized() *Error {
	return &Error{Status: 403, Code: "NOT_AUTHORIZED", Message: "caller is not authorized to edit this group"}
}

func errOwnershipChanged() *Error {
	return &Error{Status: 409, Code: "OWNERSHIP_CHANGED", Message: "group ownership changed concurrently, retry"}
}
