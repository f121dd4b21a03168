package memory

import (
	"context"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
)

// MembershipRepo is the in-memory implementation of
// membershiprepo.Repository.
type MembershipRepo struct {
	s *Store
}

var _ membershiprepo.Repository = (*MembershipRepo)(nil)

func (r *MembershipRepo) Add(ctx context.Context, m membershiprepo.Membership) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[m.GroupID]; !ok {
		return membershiprepo.ErrGroupNotFound
	}
	k := pair{group: m.GroupID, user: m.UserID}
	if _, ok := r.s.memberships[k]; ok {
		return membershiprepo.ErrDuplicate
	}
	r.s.memberships[k] = m
	return nil
}

func (r *MembershipRepo) Remove(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groups[groupID]
	if !ok {
		return membershiprepo.ErrGroupNotFound
	}
	if g.CreatorID == userID {
		return membershiprepo.ErrCreatorMembership
	}
	k := pair{group: groupID, user: userID}
	if _, ok := r.s.memberships[k]; !ok {
		return membershiprepo.ErrNotMember
	}
	delete(r.s.memberships, k)
	return nil
}

func (r *MembershipRepo) IsMember(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (bool, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.memberships[pair{group: groupID, user: userID}]
	return ok, nil
}

func (r *MembershipRepo) ListByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.GroupMember, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.GroupMember, 0)
	for k, m := range r.s.memberships {
		if k.group != groupID {
			continue
		}
		u := r.s.users[k.user]
		out = append(out, domain.GroupMember{
			UserID:      k.user,
			ExternalID:  u.ExternalID,
			DisplayName: u.DisplayName,
			MemberRole:  m.MemberRole,
			JoinedAt:    m.JoinedAt,
		})
	}
	return out, nil
}
