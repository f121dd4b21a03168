// Package contracttest holds storage-agnostic contract suites. Both the
// in-memory and the Postgres adapters must pass the same suites; each adapter
// package wires its own factory.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/nullable"

	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/apprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

// Repos bundles the four repositories over one backing store. Group,
// membership and application operations reference users and groups, so the
// suites need the whole set, not a single port.
type Repos struct {
	Users        userrepo.Repository
	Groups       grouprepo.Repository
	Memberships  membershiprepo.Repository
	Applications apprepo.Repository
}

type Factory func(t *testing.T) (Repos, CleanupFunc)

func open(t *testing.T, newRepos Factory) Repos {
	t.Helper()
	repos, cleanup := newRepos(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return repos
}

func seedUser(t *testing.T, ctx context.Context, repos Repos, ext, name string) userrepo.User {
	t.Helper()
	u := userrepo.User{
		ID:          domain.UserID(uuid.NewString()),
		ExternalID:  domain.ExternalID(ext),
		DisplayName: name,
		Phone:       "+15550100",
		Role:        domain.RoleMember,
		CreatedAt:   time.Unix(1000, 0).UTC(),
		UpdatedAt:   time.Unix(1000, 0).UTC(),
	}
	if err := repos.Users.Create(ctx, u); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func seedGroup(t *testing.T, ctx context.Context, repos Repos, name string, creator userrepo.User) grouprepo.Group {
	t.Helper()
	now := time.Unix(2000, 0).UTC()
	g := grouprepo.Group{
		ID:          domain.GroupID(uuid.NewString()),
		Name:        name,
		Description: "seeded group",
		CreatorID:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repos.Groups.Create(ctx, g); err != nil {
		t.Fatalf("seed group %s: %v", name, err)
	}
	if err := repos.Memberships.Add(ctx, membershiprepo.Membership{
		GroupID:    g.ID,
		UserID:     creator.ID,
		MemberRole: membershiprepo.RoleAdmin,
		JoinedAt:   now,
	}); err != nil {
		t.Fatalf("seed creator membership: %v", err)
	}
	return g
}

func RunUserRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	a := seedUser(t, ctx, repos, "clerk-alice", "Alice")

	got, err := repos.Users.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DisplayName != "Alice" || got.ExternalID != a.ExternalID {
		t.Fatalf("unexpected user: %+v", got)
	}
	if _, err := repos.Users.GetByExternalID(ctx, a.ExternalID); err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}

	// External identity uniqueness.
	err = repos.Users.Create(ctx, userrepo.User{
		ID:          domain.UserID(uuid.NewString()),
		ExternalID:  a.ExternalID,
		DisplayName: "Alice Again",
		Phone:       "+15550101",
		Role:        domain.RoleMember,
		CreatedAt:   time.Unix(1001, 0).UTC(),
		UpdatedAt:   time.Unix(1001, 0).UTC(),
	})
	if !errors.Is(err, userrepo.ErrExternalIDTaken) {
		t.Fatalf("expected ErrExternalIDTaken, got %v", err)
	}

	if _, err := repos.Users.GetByID(ctx, domain.UserID(uuid.NewString())); !errors.Is(err, userrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repos.Users.GetByExternalID(ctx, "clerk-nobody"); !errors.Is(err, userrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound by external id, got %v", err)
	}
}

func RunGroupRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	alice := seedUser(t, ctx, repos, "clerk-alice", "Alice")
	bob := seedUser(t, ctx, repos, "clerk-bob", "Bob")
	carol := seedUser(t, ctx, repos, "clerk-carol", "Carol")

	chess := seedGroup(t, ctx, repos, "chess club", alice)
	seedGroup(t, ctx, repos, "Astronomy", bob)

	if err := repos.Groups.Create(ctx, grouprepo.Group{
		ID:        chess.ID,
		Name:      "duplicate",
		CreatorID: alice.ID,
		CreatedAt: chess.CreatedAt,
		UpdatedAt: chess.UpdatedAt,
	}); !errors.Is(err, grouprepo.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Listing orders by name, case-insensitively, and carries creator names.
	list, err := repos.Groups.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(list))
	}
	if list[0].Name != "Astronomy" || list[1].Name != "chess club" {
		t.Fatalf("unexpected order: %q, %q", list[0].Name, list[1].Name)
	}
	if list[0].CreatorName != "Bob" || list[1].CreatorName != "Alice" {
		t.Fatalf("unexpected creator names: %q, %q", list[0].CreatorName, list[1].CreatorName)
	}

	if _, err := repos.Groups.GetByID(ctx, domain.GroupID(uuid.NewString())); !errors.Is(err, grouprepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Unix(3000, 0).UTC()

	// Transfer to a non-member without enrollment fails.
	err = repos.Groups.TransferOwnership(ctx, chess.ID, alice.ID, bob.ID, false, now)
	if !errors.Is(err, grouprepo.ErrNewOwnerNotMember) {
		t.Fatalf("expected ErrNewOwnerNotMember, got %v", err)
	}

	// Transfer to an existing member succeeds; the outgoing creator keeps
	// their membership.
	if err := repos.Memberships.Add(ctx, membershiprepo.Membership{
		GroupID: chess.ID, UserID: bob.ID, MemberRole: membershiprepo.RoleMember, JoinedAt: now,
	}); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if err := repos.Groups.TransferOwnership(ctx, chess.ID, alice.ID, bob.ID, false, now); err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	g, err := repos.Groups.GetByID(ctx, chess.ID)
	if err != nil {
		t.Fatalf("GetByID after transfer: %v", err)
	}
	if g.CreatorID != bob.ID {
		t.Fatalf("expected creator %s, got %s", bob.ID, g.CreatorID)
	}
	if ok, _ := repos.Memberships.IsMember(ctx, chess.ID, alice.ID); !ok {
		t.Fatalf("outgoing creator lost their membership")
	}

	// Stale expected-creator check.
	err = repos.Groups.TransferOwnership(ctx, chess.ID, alice.ID, carol.ID, true, now)
	if !errors.Is(err, grouprepo.ErrCreatorMismatch) {
		t.Fatalf("expected ErrCreatorMismatch, got %v", err)
	}

	// Enroll-if-absent path.
	if err := repos.Groups.TransferOwnership(ctx, chess.ID, bob.ID, carol.ID, true, now); err != nil {
		t.Fatalf("TransferOwnership with enrollment: %v", err)
	}
	if ok, _ := repos.Memberships.IsMember(ctx, chess.ID, carol.ID); !ok {
		t.Fatalf("expected carol to be enrolled by the transfer")
	}
}

func RunGroupRepoEdit(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	alice := seedUser(t, ctx, repos, "clerk-alice", "Alice")
	bob := seedUser(t, ctx, repos, "clerk-bob", "Bob")

	g := seedGroup(t, ctx, repos, "Hiking", alice)
	now := time.Unix(4000, 0).UTC()

	// Field updates: set name and image, then clear the image with an
	// explicit null.
	err := repos.Groups.Edit(ctx, grouprepo.EditCommand{
		GroupID:         g.ID,
		ExpectCreatorID: alice.ID,
		Name:            nullable.NewNullableWithValue("Alpine Hiking"),
		ImageURL:        nullable.NewNullableWithValue("https://img.example/hike.png"),
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("Edit fields: %v", err)
	}
	got, err := repos.Groups.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Alpine Hiking" || got.ImageURL == nil || *got.ImageURL != "https://img.example/hike.png" {
		t.Fatalf("unexpected group after edit: %+v", got)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, got.UpdatedAt)
	}

	err = repos.Groups.Edit(ctx, grouprepo.EditCommand{
		GroupID:         g.ID,
		ExpectCreatorID: alice.ID,
		ImageURL:        nullable.NewNullNullable[string](),
		UpdatedAt:       now.Add(time.Second),
	})
	if err != nil {
		t.Fatalf("Edit clear image: %v", err)
	}
	got, _ = repos.Groups.GetByID(ctx, g.ID)
	if got.ImageURL != nil {
		t.Fatalf("expected image cleared, got %q", *got.ImageURL)
	}

	// Removing a non-member and removing the creator both fail.
	err = repos.Groups.Edit(ctx, grouprepo.EditCommand{
		GroupID: g.ID, ExpectCreatorID: alice.ID, RemoveUserID: &bob.ID, UpdatedAt: now,
	})
	if !errors.Is(err, grouprepo.ErrRemoveNotMember) {
		t.Fatalf("expected ErrRemoveNotMember, got %v", err)
	}
	err = repos.Groups.Edit(ctx, grouprepo.EditCommand{
		GroupID: g.ID, ExpectCreatorID: alice.ID, RemoveUserID: &alice.ID, UpdatedAt: now,
	})
	if !errors.Is(err, grouprepo.ErrRemoveCreator) {
		t.Fatalf("expected ErrRemoveCreator, got %v", err)
	}

	// Embedded ownership transfer enrolls the new owner, and the removal in
	// the same command runs against the post-transfer creator.
	err = repos.Groups.Edit(ctx, grouprepo.EditCommand{
		GroupID:         g.ID,
		ExpectCreatorID: alice.ID,
		NewOwnerID:      &bob.ID,
		RemoveUserID:    &alice.ID,
		UpdatedAt:       now.Add(2 * time.Second),
	})
	if err != nil {
		t.Fatalf("Edit transfer+remove: %v", err)
	}
	got, _ = repos.Groups.GetByID(ctx, g.ID)
	if got.CreatorID != bob.ID {
		t.Fatalf("expected creator %s, got %s", bob.ID, got.CreatorID)
	}
	if ok, _ := repos.Memberships.IsMember(ctx, g.ID, bob.ID); !ok {
		t.Fatalf("expected new owner enrolled")
	}
	if ok, _ := repos.Memberships.IsMember(ctx, g.ID, alice.ID); ok {
		t.Fatalf("expected alice removed")
	}

	// Stale expected-creator aborts the whole command.
	err = repos.Groups.Edit(ctx, grouprepo.EditCommand{
		GroupID:         g.ID,
		ExpectCreatorID: alice.ID,
		Name:            nullable.NewNullableWithValue("Stale"),
		UpdatedAt:       now,
	})
	if !errors.Is(err, grouprepo.ErrCreatorMismatch) {
		t.Fatalf("expected ErrCreatorMismatch, got %v", err)
	}
	got, _ = repos.Groups.GetByID(ctx, g.ID)
	if got.Name == "Stale" {
		t.Fatalf("stale edit must not apply")
	}
}

func RunMembershipRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	alice := seedUser(t, ctx, repos, "clerk-alice", "Alice")
	bob := seedUser(t, ctx, repos, "clerk-bob", "Bob")
	g := seedGroup(t, ctx, repos, "Cycling", alice)

	now := time.Unix(5000, 0).UTC()
	m := membershiprepo.Membership{GroupID: g.ID, UserID: bob.ID, MemberRole: membershiprepo.RoleMember, JoinedAt: now}
	if err := repos.Memberships.Add(ctx, m); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repos.Memberships.Add(ctx, m); !errors.Is(err, membershiprepo.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	err := repos.Memberships.Add(ctx, membershiprepo.Membership{
		GroupID: domain.GroupID(uuid.NewString()), UserID: bob.ID, MemberRole: membershiprepo.RoleMember, JoinedAt: now,
	})
	if !errors.Is(err, membershiprepo.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}

	if ok, err := repos.Memberships.IsMember(ctx, g.ID, bob.ID); err != nil || !ok {
		t.Fatalf("IsMember(bob) = %v, %v", ok, err)
	}

	members, err := repos.Memberships.ListByGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	byUser := map[domain.UserID]domain.GroupMember{}
	for _, gm := range members {
		byUser[gm.UserID] = gm
	}
	if gm := byUser[bob.ID]; gm.DisplayName != "Bob" || gm.MemberRole != membershiprepo.RoleMember || gm.ExternalID != bob.ExternalID {
		t.Fatalf("unexpected bob membership: %+v", gm)
	}
	if gm := byUser[alice.ID]; gm.MemberRole != membershiprepo.RoleAdmin {
		t.Fatalf("unexpected creator membership: %+v", gm)
	}

	// Unknown group lists empty, never errors.
	empty, err := repos.Memberships.ListByGroup(ctx, domain.GroupID(uuid.NewString()))
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list for unknown group, got %v, %v", empty, err)
	}

	// Creator guard and non-member removal.
	if err := repos.Memberships.Remove(ctx, g.ID, alice.ID); !errors.Is(err, membershiprepo.ErrCreatorMembership) {
		t.Fatalf("expected ErrCreatorMembership, got %v", err)
	}
	if err := repos.Memberships.Remove(ctx, g.ID, bob.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := repos.Memberships.Remove(ctx, g.ID, bob.ID); !errors.Is(err, membershiprepo.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := repos.Memberships.Remove(ctx, domain.GroupID(uuid.NewString()), bob.ID); !errors.Is(err, membershiprepo.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound on removal, got %v", err)
	}
}

func RunApplicationRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	alice := seedUser(t, ctx, repos, "clerk-alice", "Alice")
	admin := seedUser(t, ctx, repos, "clerk-admin", "Root")

	mk := func(name string, createdAt time.Time, status domain.ApplicationStatus) apprepo.Application {
		a := apprepo.Application{
			ID:          domain.ApplicationID(uuid.NewString()),
			ApplicantID: alice.ID,
			Name:        name,
			Description: "a " + name + " group",
			Status:      status,
			CreatedAt:   createdAt,
		}
		if err := repos.Applications.Create(ctx, a); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		return a
	}

	base := time.Unix(6000, 0).UTC()
	first := mk("Chess", base, domain.ApplicationPending)
	second := mk("Poetry", base.Add(time.Minute), domain.ApplicationLegacyNew)

	got, err := repos.Applications.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Chess" || got.ReviewerID != nil || got.ReviewedAt != nil {
		t.Fatalf("unexpected application: %+v", got)
	}
	if _, err := repos.Applications.GetByID(ctx, domain.ApplicationID(uuid.NewString())); !errors.Is(err, apprepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// The pending queue includes the legacy "new" tag and orders newest
	// first, with applicant names joined in.
	pending, err := repos.Applications.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != second.ID || pending[1].ID != first.ID {
		t.Fatalf("unexpected queue order: %v, %v", pending[0].ID, pending[1].ID)
	}
	if pending[0].ApplicantName != "Alice" {
		t.Fatalf("expected applicant name, got %q", pending[0].ApplicantName)
	}

	// Approval creates the group and the founding membership atomically.
	groupID := domain.GroupID(uuid.NewString())
	reviewedAt := base.Add(time.Hour)
	if err := repos.Applications.Approve(ctx, first.ID, groupID, admin.ID, reviewedAt); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	g, err := repos.Groups.GetByID(ctx, groupID)
	if err != nil {
		t.Fatalf("approved group missing: %v", err)
	}
	if g.Name != "Chess" || g.CreatorID != alice.ID {
		t.Fatalf("unexpected group from approval: %+v", g)
	}
	members, err := repos.Memberships.ListByGroup(ctx, groupID)
	if err != nil || len(members) != 1 {
		t.Fatalf("expected single founding membership, got %v, %v", members, err)
	}
	if members[0].UserID != alice.ID || members[0].MemberRole != membershiprepo.RoleAdmin {
		t.Fatalf("unexpected founding membership: %+v", members[0])
	}
	got, _ = repos.Applications.GetByID(ctx, first.ID)
	if got.Status != domain.ApplicationApproved || got.ReviewerID == nil || *got.ReviewerID != admin.ID {
		t.Fatalf("unexpected application after approval: %+v", got)
	}
	if got.ReviewedAt == nil || !got.ReviewedAt.Equal(reviewedAt) {
		t.Fatalf("unexpected reviewed_at: %v", got.ReviewedAt)
	}

	// A decided application cannot be re-decided.
	if err := repos.Applications.Approve(ctx, first.ID, domain.GroupID(uuid.NewString()), admin.ID, reviewedAt); !errors.Is(err, apprepo.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed on re-approve, got %v", err)
	}
	if err := repos.Applications.Reject(ctx, first.ID, admin.ID, reviewedAt); !errors.Is(err, apprepo.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed on reject-after-approve, got %v", err)
	}

	// Rejection decides the legacy-tagged application with no group side
	// effects.
	if err := repos.Applications.Reject(ctx, second.ID, admin.ID, reviewedAt); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got, _ = repos.Applications.GetByID(ctx, second.ID)
	if got.Status != domain.ApplicationRejected {
		t.Fatalf("expected rejected, got %s", got.Status)
	}
	pending, _ = repos.Applications.ListPending(ctx)
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d", len(pending))
	}

	if err := repos.Applications.Approve(ctx, domain.ApplicationID(uuid.NewString()), domain.GroupID(uuid.NewString()), admin.ID, reviewedAt); !errors.Is(err, apprepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
