package memory

import (
	"context"
	"sort"
	"time"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/apprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
)

// ApplicationRepo is the in-memory implementation of apprepo.Repository.
type ApplicationRepo struct {
	s *Store
}

var _ apprepo.Repository = (*ApplicationRepo)(nil)

func (r *ApplicationRepo) Create(ctx context.Context, a apprepo.Application) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a.ImageURL = cloneStringPtr(a.ImageURL)
	r.s.applications[a.ID] = a
	return nil
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id domain.ApplicationID) (apprepo.Application, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.applications[id]
	if !ok {
		return apprepo.Application{}, apprepo.ErrNotFound
	}
	a.ImageURL = cloneStringPtr(a.ImageURL)
	return a, nil
}

func (r *ApplicationRepo) ListPending(ctx context.Context) ([]apprepo.Summary, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]apprepo.Summary, 0)
	for _, a := range r.s.applications {
		if !a.Status.IsPending() {
			continue
		}
		a.ImageURL = cloneStringPtr(a.ImageURL)
		out = append(out, apprepo.Summary{
			Application:   a,
			ApplicantName: r.s.users[a.ApplicantID].DisplayName,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ApplicationRepo) Approve(ctx context.Context, id domain.ApplicationID, groupID domain.GroupID, reviewerID domain.UserID, now time.Time) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.applications[id]
	if !ok {
		return apprepo.ErrNotFound
	}
	if !a.Status.IsPending() {
		return apprepo.ErrAlreadyProcessed
	}

	r.s.groups[groupID] = grouprepo.Group{
		ID:          groupID,
		Name:        a.Name,
		Description: a.Description,
		ImageURL:    cloneStringPtr(a.ImageURL),
		CreatorID:   a.ApplicantID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.memberships[pair{group: groupID, user: a.ApplicantID}] = membershiprepo.Membership{
		GroupID:    groupID,
		UserID:     a.ApplicantID,
		MemberRole: membershiprepo.RoleAdmin,
		JoinedAt:   now,
	}

	a.Status = domain.ApplicationApproved
	a.ReviewerID = &reviewerID
	reviewedAt := now
	a.ReviewedAt = &reviewedAt
	r.s.applications[id] = a
	return nil
}

func (r *ApplicationRepo) Reject(ctx context.Context, id domain.ApplicationID, reviewerID domain.UserID, now time.Time) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.applications[id]
	if !ok {
		return apprepo.ErrNotFound
	}
	if !a.Status.IsPending() {
		return apprepo.ErrAlreadyProcessed
	}

	a.Status = domain.ApplicationRejected
	a.ReviewerID = &reviewerID
	reviewedAt := now
	a.ReviewedAt = &reviewedAt
	r.s.applications[id] = a
	return nil
}
