package groups

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/commonsclub/groups-api/internal/adapters/memory"
	"github.com/commonsclub/groups-api/internal/domain"
	"github.com/commonsclub/groups-api/internal/ports/out/grouprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/membershiprepo"
	"github.com/commonsclub/groups-api/internal/ports/out/userrepo"
)

type fixture struct {
	store *memory.Store
	svc   *Service
}

func newFixture() *fixture {
	store := memory.NewStore()
	return &fixture{
		store: store,
		svc:   NewService(store.Groups(), store.Memberships(), store.Users()),
	}
}

func (f *fixture) user(t *testing.T, id, ext, name string) userrepo.User {
	t.Helper()
	u := userrepo.User{
		ID:          domain.UserID(id),
		ExternalID:  domain.ExternalID(ext),
		DisplayName: name,
		Phone:       "+15550100",
		Role:        domain.RoleMember,
		CreatedAt:   time.Unix(1000, 0).UTC(),
		UpdatedAt:   time.Unix(1000, 0).UTC(),
	}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func (f *fixture) admin(t *testing.T, id, ext, name string) userrepo.User {
	t.Helper()
	u := f.user(t, id, ext, name)
	if !f.store.Users().SetRole(u.ID, domain.RoleAdmin) {
		t.Fatalf("SetRole failed")
	}
	u.Role = domain.RoleAdmin
	return u
}

func (f *fixture) group(t *testing.T, id, name string, creator domain.UserID) grouprepo.Group {
	t.Helper()
	now := time.Unix(2000, 0).UTC()
	g := grouprepo.Group{
		ID:          domain.GroupID(id),
		Name:        name,
		Description: "a group",
		CreatorID:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.store.Groups().Create(context.Background(), g); err != nil {
		t.Fatalf("seed group %s: %v", name, err)
	}
	f.member(t, g.ID, creator, membershiprepo.RoleAdmin)
	return g
}

func (f *fixture) member(t *testing.T, groupID domain.GroupID, userID domain.UserID, role string) {
	t.Helper()
	err := f.store.Memberships().Add(context.Background(), membershiprepo.Membership{
		GroupID:    groupID,
		UserID:     userID,
		MemberRole: role,
		JoinedAt:   time.Unix(2000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

func wantServiceError(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v, want %s %d", err, code, status)
	}
	return ae
}

func TestService_ListGroups(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	bob := f.user(t, "u-bob", "clerk-bob", "Bob")
	f.group(t, "g-chess", "chess club", alice.ID)
	f.group(t, "g-astro", "Astronomy", bob.ID)

	gs, err := f.svc.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups err=%v", err)
	}
	if len(gs) != 2 {
		t.Fatalf("len=%d, want 2", len(gs))
	}
	if gs[0].Name != "Astronomy" || gs[0].CreatorName != "Bob" {
		t.Fatalf("first=%+v", gs[0])
	}
	if gs[1].Name != "chess club" || gs[1].CreatorName != "Alice" {
		t.Fatalf("second=%+v", gs[1])
	}
}

func TestService_GetGroup_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.svc.GetGroup(context.Background(), "g-missing")
	wantServiceError(t, err, 404, "GROUP_NOT_FOUND")
}

func TestService_GetCreator(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	creator, err := f.svc.GetCreator(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetCreator err=%v", err)
	}
	if creator.ID != alice.ID || creator.DisplayName != "Alice" {
		t.Fatalf("creator=%+v", creator)
	}

	_, err = f.svc.GetCreator(ctx, "g-missing")
	wantServiceError(t, err, 404, "GROUP_NOT_FOUND")
}

func TestService_Members_UnknownGroupYieldsEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture()

	ms, err := f.svc.Members(context.Background(), "g-missing")
	if err != nil {
		t.Fatalf("Members err=%v", err)
	}
	if len(ms) != 0 {
		t.Fatalf("expected empty list, got %+v", ms)
	}
}

func TestService_JoinAndLeave(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	bob := f.user(t, "u-bob", "clerk-bob", "Bob")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	m, err := f.svc.Join(ctx, g.ID, bob.ExternalID)
	if err != nil {
		t.Fatalf("Join err=%v", err)
	}
	if m.UserID != bob.ID || m.MemberRole != membershiprepo.RoleMember {
		t.Fatalf("member=%+v", m)
	}

	_, err = f.svc.Join(ctx, g.ID, bob.ExternalID)
	wantServiceError(t, err, 409, "ALREADY_MEMBER")

	if err := f.svc.Leave(ctx, g.ID, bob.ExternalID); err != nil {
		t.Fatalf("Leave err=%v", err)
	}
	err = f.svc.Leave(ctx, g.ID, bob.ExternalID)
	wantServiceError(t, err, 409, "NOT_MEMBER")

	// Join and leave are inverses: a fresh join succeeds again.
	if _, err := f.svc.Join(ctx, g.ID, bob.ExternalID); err != nil {
		t.Fatalf("re-Join err=%v", err)
	}
}

func TestService_Join_Unknowns(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	_, err := f.svc.Join(ctx, g.ID, "clerk-nobody")
	wantServiceError(t, err, 404, "USER_NOT_FOUND")

	_, err = f.svc.Join(ctx, "g-missing", alice.ExternalID)
	wantServiceError(t, err, 404, "GROUP_NOT_FOUND")
}

func TestService_Leave_CreatorBlocked(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	err := f.svc.Leave(ctx, g.ID, alice.ExternalID)
	wantServiceError(t, err, 403, "CREATOR_CANNOT_LEAVE")
}

func TestService_TransferOwner(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	bob := f.user(t, "u-bob", "clerk-bob", "Bob")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	// Only the creator may use this path.
	_, err := f.svc.TransferOwner(ctx, g.ID, bob.ExternalID, bob.ID)
	wantServiceError(t, err, 403, "NOT_OWNER")

	// The new owner must already hold a membership.
	_, err = f.svc.TransferOwner(ctx, g.ID, alice.ExternalID, bob.ID)
	wantServiceError(t, err, 409, "NEW_OWNER_NOT_MEMBER")

	f.member(t, g.ID, bob.ID, membershiprepo.RoleMember)
	d, err := f.svc.TransferOwner(ctx, g.ID, alice.ExternalID, bob.ID)
	if err != nil {
		t.Fatalf("TransferOwner err=%v", err)
	}
	if d.CreatorID != bob.ID || d.CreatorName != "Bob" {
		t.Fatalf("detail=%+v", d)
	}

	// The outgoing creator stays a plain member and may now leave.
	if err := f.svc.Leave(ctx, g.ID, alice.ExternalID); err != nil {
		t.Fatalf("Leave after transfer err=%v", err)
	}
}

func TestService_TransferOwner_NoAdminOverride(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	bob := f.user(t, "u-bob", "clerk-bob", "Bob")
	root := f.admin(t, "u-root", "clerk-root", "Root")
	g := f.group(t, "g-1", "Hiking", alice.ID)
	f.member(t, g.ID, bob.ID, membershiprepo.RoleMember)

	// Site admins get no special power on the dedicated transfer path.
	_, err := f.svc.TransferOwner(ctx, g.ID, root.ExternalID, bob.ID)
	wantServiceError(t, err, 403, "NOT_OWNER")
}

func TestService_Edit_Authorization(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	bob := f.user(t, "u-bob", "clerk-bob", "Bob")
	root := f.admin(t, "u-root", "clerk-root", "Root")
	g := f.group(t, "g-1", "Hiking", alice.ID)
	f.member(t, g.ID, bob.ID, membershiprepo.RoleMember)

	in := EditInput{Name: nullable.NewNullableWithValue("Alpine Hiking")}

	_, err := f.svc.Edit(ctx, g.ID, bob.ExternalID, in)
	wantServiceError(t, err, 403, "NOT_AUTHORIZED")

	_, err = f.svc.Edit(ctx, g.ID, "clerk-nobody", in)
	wantServiceError(t, err, 403, "NOT_AUTHORIZED")

	// Site admins may edit any group.
	d, err := f.svc.Edit(ctx, g.ID, root.ExternalID, in)
	if err != nil {
		t.Fatalf("Edit as admin err=%v", err)
	}
	if d.Name != "Alpine Hiking" {
		t.Fatalf("name=%q", d.Name)
	}
}

func TestService_Edit_NoChanges(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	_, err := f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{})
	wantServiceError(t, err, 400, "NO_CHANGES")
}

func TestService_Edit_Fields(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	// Normalized text update plus image set.
	d, err := f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{
		Name:     nullable.NewNullableWithValue("  Alpine   Hiking "),
		ImageURL: nullable.NewNullableWithValue("https://img.example/h.png"),
	})
	if err != nil {
		t.Fatalf("Edit err=%v", err)
	}
	if d.Name != "Alpine Hiking" || d.ImageURL == nil || *d.ImageURL != "https://img.example/h.png" {
		t.Fatalf("detail=%+v", d)
	}

	// Explicit null clears the image but is rejected for name.
	_, err = f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{Name: nullable.NewNullNullable[string]()})
	wantServiceError(t, err, 400, "VALIDATION_ERROR")

	d, err = f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{ImageURL: nullable.NewNullNullable[string]()})
	if err != nil {
		t.Fatalf("Edit clear image err=%v", err)
	}
	if d.ImageURL != nil {
		t.Fatalf("image not cleared: %q", *d.ImageURL)
	}

	// Whitespace-only description is rejected.
	_, err = f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{Description: nullable.NewNullableWithValue("   ")})
	wantServiceError(t, err, 400, "VALIDATION_ERROR")
}

func TestService_Edit_Transfer(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	bob := f.user(t, "u-bob", "clerk-bob", "Bob")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	_, err := f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{NewOwnerID: &alice.ID})
	wantServiceError(t, err, 400, "SELF_TRANSFER")

	ghost := domain.UserID("u-ghost")
	_, err = f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{NewOwnerID: &ghost})
	wantServiceError(t, err, 404, "USER_NOT_FOUND")

	// The edit path enrolls a non-member new owner.
	d, err := f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{NewOwnerID: &bob.ID})
	if err != nil {
		t.Fatalf("Edit transfer err=%v", err)
	}
	if d.CreatorID != bob.ID {
		t.Fatalf("creator=%s, want %s", d.CreatorID, bob.ID)
	}
	ok, err := f.store.Memberships().IsMember(ctx, g.ID, bob.ID)
	if err != nil || !ok {
		t.Fatalf("new owner not enrolled: %v, %v", ok, err)
	}
}

func TestService_Edit_RemoveMember(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	bob := f.user(t, "u-bob", "clerk-bob", "Bob")
	g := f.group(t, "g-1", "Hiking", alice.ID)

	_, err := f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{RemoveMemberID: &bob.ID})
	wantServiceError(t, err, 404, "NOT_MEMBER")

	_, err = f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{RemoveMemberID: &alice.ID})
	wantServiceError(t, err, 403, "CREATOR_CANNOT_BE_REMOVED")

	f.member(t, g.ID, bob.ID, membershiprepo.RoleMember)
	if _, err := f.svc.Edit(ctx, g.ID, alice.ExternalID, EditInput{RemoveMemberID: &bob.ID}); err != nil {
		t.Fatalf("Edit remove err=%v", err)
	}
	ok, _ := f.store.Memberships().IsMember(ctx, g.ID, bob.ID)
	if ok {
		t.Fatalf("bob still a member")
	}
}

func TestService_Edit_GroupNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	_, err := f.svc.Edit(context.Background(), "g-missing", alice.ExternalID, EditInput{
		Name: nullable.NewNullableWithValue("X"),
	})
	wantServiceError(t, err, 404, "GROUP_NOT_FOUND")
}
