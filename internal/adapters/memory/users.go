package memory

import (
	"context"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

// UserRepo is the in-memory implementation of userrepo.Repository.
type UserRepo struct {
	s *Store
}

var _ userrepo.Repository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u userrepo.User) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.usersByExt[u.ExternalID]; ok {
		return userrepo.ErrExternalIDTaken
	}
	r.s.users[u.ID] = u
	r.s.usersByExt[u.ExternalID] = u.ID
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) GetByExternalID(ctx context.Context, ext domain.ExternalID) (userrepo.User, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usersByExt[ext]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.s.users[id], nil
}

// SetRole changes a user's site role in place. Role changes are out-of-band
// in production (no API surface); this exists for tests and local seeding.
func (r *UserRepo) SetRole(id domain.UserID, role domain.Role) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return false
	}
	u.Role = role
	r.s.users[id] = u
	return true
}
