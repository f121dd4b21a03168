package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
)

// GroupRepo is the in-memory implementation of grouprepo.Repository.
type GroupRepo struct {
	s *Store
}

var _ grouprepo.Repository = (*GroupRepo)(nil)

func (r *GroupRepo) Create(ctx context.Context, g grouprepo.Group) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[g.ID]; ok {
		return grouprepo.ErrAlreadyExists
	}
	g.ImageURL = cloneStringPtr(g.ImageURL)
	r.s.groups[g.ID] = g
	return nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id domain.GroupID) (grouprepo.Group, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return grouprepo.Group{}, grouprepo.ErrNotFound
	}
	g.ImageURL = cloneStringPtr(g.ImageURL)
	return g, nil
}

func (r *GroupRepo) List(ctx context.Context) ([]grouprepo.Summary, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]grouprepo.Summary, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		g.ImageURL = cloneStringPtr(g.ImageURL)
		out = append(out, grouprepo.Summary{
			Group:       g,
			CreatorName: r.s.users[g.CreatorID].DisplayName,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ni := strings.ToLower(out[i].Name)
		nj := strings.ToLower(out[j].Name)
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return out, nil
}

func (r *GroupRepo) TransferOwnership(ctx context.Context, groupID domain.GroupID, expectCreatorID, newOwnerID domain.UserID, enrollIfAbsent bool, now time.Time) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groups[groupID]
	if !ok {
		return grouprepo.ErrNotFound
	}
	if g.CreatorID != expectCreatorID {
		return grouprepo.ErrCreatorMismatch
	}
	if _, member := r.s.memberships[pair{group: groupID, user: newOwnerID}]; !member {
		if !enrollIfAbsent {
			return grouprepo.ErrNewOwnerNotMember
		}
		r.s.memberships[pair{group: groupID, user: newOwnerID}] = membershiprepo.Membership{
			GroupID:    groupID,
			UserID:     newOwnerID,
			MemberRole: membershiprepo.RoleMember,
			JoinedAt:   now,
		}
	}
	g.CreatorID = newOwnerID
	g.UpdatedAt = now
	r.s.groups[groupID] = g
	return nil
}

func (r *GroupRepo) Edit(ctx context.Context, cmd grouprepo.EditCommand) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groups[cmd.GroupID]
	if !ok {
		return grouprepo.ErrNotFound
	}
	if g.CreatorID != cmd.ExpectCreatorID {
		return grouprepo.ErrCreatorMismatch
	}

	// Stage every change, commit only if all checks pass.
	staged := g
	addMembership := (*membershiprepo.Membership)(nil)
	removeKey := (*pair)(nil)

	if cmd.NewOwnerID != nil {
		newOwner := *cmd.NewOwnerID
		if _, member := r.s.memberships[pair{group: cmd.GroupID, user: newOwner}]; !member {
			addMembership = &membershiprepo.Membership{
				GroupID:    cmd.GroupID,
				UserID:     newOwner,
				MemberRole: membershiprepo.RoleMember,
				JoinedAt:   cmd.UpdatedAt,
			}
		}
		staged.CreatorID = newOwner
	}

	if cmd.RemoveUserID != nil {
		target := *cmd.RemoveUserID
		if target == staged.CreatorID {
			return grouprepo.ErrRemoveCreator
		}
		k := pair{group: cmd.GroupID, user: target}
		if _, member := r.s.memberships[k]; !member {
			return grouprepo.ErrRemoveNotMember
		}
		removeKey = &k
	}

	if cmd.Name.IsSpecified() && !cmd.Name.IsNull() {
		staged.Name = cmd.Name.MustGet()
	}
	if cmd.Description.IsSpecified() && !cmd.Description.IsNull() {
		staged.Description = cmd.Description.MustGet()
	}
	if cmd.ImageURL.IsSpecified() {
		if cmd.ImageURL.IsNull() {
			staged.ImageURL = nil
		} else {
			v := cmd.ImageURL.MustGet()
			staged.ImageURL = &v
		}
	}
	staged.UpdatedAt = cmd.UpdatedAt

	if addMembership != nil {
		r.s.memberships[pair{group: addMembership.GroupID, user: addMembership.UserID}] = *addMembership
	}
	if removeKey != nil {
		delete(r.s.memberships, *removeKey)
	}
	r.s.groups[cmd.GroupID] = staged
	return nil
}
