// Package memory holds the in-memory persistence adapters. All four
// repositories share one Store guarded by a single mutex: approval, edit and
// ownership transfer mutate several tables as one atomic unit, and a shared
// lock is the in-memory analogue of the single transaction the Postgres
// adapters use.
package memory

import (
	"sync"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/apprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

type pair struct {
	group domain.GroupID
	user  domain.UserID
}

// Store is the shared in-memory state. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	users      map[domain.UserID]userrepo.User
	usersByExt map[domain.ExternalID]domain.UserID

	groups      map[domain.GroupID]grouprepo.Group
	memberships map[pair]membershiprepo.Membership

	applications map[domain.ApplicationID]apprepo.Application
}

func NewStore() *Store {
	return &Store{
		users:        make(map[domain.UserID]userrepo.User),
		usersByExt:   make(map[domain.ExternalID]domain.UserID),
		groups:       make(map[domain.GroupID]grouprepo.Group),
		memberships:  make(map[pair]membershiprepo.Membership),
		applications: make(map[domain.ApplicationID]apprepo.Application),
	}
}

// Users returns the userrepo.Repository view of the store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Groups returns the grouprepo.Repository view of the store.
func (s *Store) Groups() *GroupRepo { return &GroupRepo{s: s} }

// Memberships returns the membershiprepo.Repository view of the store.
func (s *Store) Memberships() *MembershipRepo { return &MembershipRepo{s: s} }

// Applications returns the apprepo.Repository view of the store.
func (s *Store) Applications() *ApplicationRepo { return &ApplicationRepo{s: s} }

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
