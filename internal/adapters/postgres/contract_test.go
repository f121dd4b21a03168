package postgres_test

import (
	"testing"

	"github.com/commonsclub/groups-api/internal/adapters/contracttest"
	"github.com/commonsclub/groups-api/internal/adapters/postgres/apprepo"
	"github.com/commonsclub/groups-api/internal/adapters/postgres/grouprepo"
	"github.com/commonsclub/groups-api/internal/adapters/postgres/membershiprepo"
	"github.com/commonsclub/groups-api/internal/adapters/postgres/testutil"
	"github.com/commonsclub/groups-api/internal/adapters/postgres/userrepo"
)

// The Postgres suites share one database, so they run sequentially and each
// factory truncates before handing out repositories.
func newRepos(t *testing.T) (contracttest.Repos, contracttest.CleanupFunc) {
	t.Helper()
	pool := testutil.OpenMigratedPool(t)
	testutil.Reset(t, pool)
	return contracttest.Repos{
		Users:        userrepo.NewRepo(pool),
		Groups:       grouprepo.NewRepo(pool),
		Memberships:  membershiprepo.NewRepo(pool),
		Applications: apprepo.NewRepo(pool),
	}, nil
}

func TestContract_PostgresUserRepo(t *testing.T) {
	contracttest.RunUserRepo(t, newRepos)
}

func TestContract_PostgresGroupRepo(t *testing.T) {
	contracttest.RunGroupRepo(t, newRepos)
}

func TestContract_PostgresGroupRepoEdit(t *testing.T) {
	contracttest.RunGroupRepoEdit(t, newRepos)
}

func TestContract_PostgresMembershipRepo(t *testing.T) {
	contracttest.RunMembershipRepo(t, newRepos)
}

func TestContract_PostgresApplicationRepo(t *testing.T) {
	contracttest.RunApplicationRepo(t, newRepos)
}
