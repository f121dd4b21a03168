package memory

import (
	"testing"

	"github.com/commonsclub/groups-api/internal/adapters/contracttest"
)

func newRepos(t *testing.T) (contracttest.Repos, contracttest.CleanupFunc) {
	t.Helper()
	s := NewStore()
	return contracttest.Repos{
		Users:        s.Users(),
		Groups:       s.Groups(),
		Memberships:  s.Memberships(),
		Applications: s.Applications(),
	}, nil
}

func TestContract_UserRepo(t *testing.T) {
	t.Parallel()
	contracttest.RunUserRepo(t, newRepos)
}

func TestContract_GroupRepo(t *testing.T) {
	t.Parallel()
	contracttest.RunGroupRepo(t, newRepos)
}

func TestContract_GroupRepoEdit(t *testing.T) {
	t.Parallel()
	contracttest.RunGroupRepoEdit(t, newRepos)
}

func TestContract_MembershipRepo(t *testing.T) {
	t.Parallel()
	contracttest.RunMembershipRepo(t, newRepos)
}

func TestContract_ApplicationRepo(t *testing.T) {
	t.Parallel()
	contracttest.RunApplicationRepo(t, newRepos)
}
