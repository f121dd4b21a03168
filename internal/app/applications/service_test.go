package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/commonsclub/groups-api/internal/adapters/memory"
	"github.com/commonsclub/groups-api/internal/domain"
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
		svc:   NewService(store.Applications(), store.Users()),
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

func wantServiceError(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v, want %s %d", err, code, status)
	}
	return ae
}

func TestService_Apply(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")

	a, err := f.svc.Apply(ctx, alice.ExternalID, ApplyInput{
		Name:        "  Chess   Club ",
		Description: "weekly games",
	})
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	if a.Name != "Chess Club" || a.ApplicantID != alice.ID {
		t.Fatalf("application=%+v", a)
	}
	if !a.Status.IsPending() {
		t.Fatalf("status=%q, want pending", a.Status)
	}
}

func TestService_Apply_UnknownUser(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.svc.Apply(context.Background(), "clerk-nobody", ApplyInput{
		Name: "Chess", Description: "games",
	})
	wantServiceError(t, err, 404, "USER_NOT_FOUND")
}

func TestService_Apply_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")

	_, err := f.svc.Apply(context.Background(), alice.ExternalID, ApplyInput{
		Name:        "   ",
		Description: "",
	})
	ae := wantServiceError(t, err, 400, "VALIDATION_ERROR")
	if _, ok := ae.Details["name"]; !ok {
		t.Fatalf("details missing name: %v", ae.Details)
	}
	if _, ok := ae.Details["description"]; !ok {
		t.Fatalf("details missing description: %v", ae.Details)
	}
}

func TestService_ApproveLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	root := f.admin(t, "u-root", "clerk-root", "Root")

	a, err := f.svc.Apply(ctx, alice.ExternalID, ApplyInput{Name: "Chess", Description: "games"})
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}

	// Non-admins and unknown identities are rejected identically.
	_, err = f.svc.Approve(ctx, a.ID, alice.ExternalID)
	wantServiceError(t, err, 403, "ADMIN_REQUIRED")
	_, err = f.svc.Approve(ctx, a.ID, "clerk-nobody")
	wantServiceError(t, err, 403, "ADMIN_REQUIRED")

	groupID, err := f.svc.Approve(ctx, a.ID, root.ExternalID)
	if err != nil {
		t.Fatalf("Approve err=%v", err)
	}

	// The approved application spawned the group with the applicant as
	// creator and founding admin member.
	g, err := f.store.Groups().GetByID(ctx, groupID)
	if err != nil {
		t.Fatalf("group missing: %v", err)
	}
	if g.Name != "Chess" || g.CreatorID != alice.ID {
		t.Fatalf("group=%+v", g)
	}
	members, err := f.store.Memberships().ListByGroup(ctx, groupID)
	if err != nil || len(members) != 1 {
		t.Fatalf("members=%v err=%v", members, err)
	}
	if members[0].UserID != alice.ID || members[0].MemberRole != membershiprepo.RoleAdmin {
		t.Fatalf("founding member=%+v", members[0])
	}

	got, err := f.svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.Status != domain.ApplicationApproved || got.ReviewerID == nil || *got.ReviewerID != root.ID {
		t.Fatalf("application=%+v", got)
	}

	// Approval is single-use.
	_, err = f.svc.Approve(ctx, a.ID, root.ExternalID)
	wantServiceError(t, err, 400, "ALREADY_PROCESSED")
	err = f.svc.Reject(ctx, a.ID, root.ExternalID)
	wantServiceError(t, err, 400, "ALREADY_PROCESSED")
}

func TestService_Reject(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	root := f.admin(t, "u-root", "clerk-root", "Root")

	a, err := f.svc.Apply(ctx, alice.ExternalID, ApplyInput{Name: "Chess", Description: "games"})
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}

	err = f.svc.Reject(ctx, a.ID, alice.ExternalID)
	wantServiceError(t, err, 403, "ADMIN_REQUIRED")

	if err := f.svc.Reject(ctx, a.ID, root.ExternalID); err != nil {
		t.Fatalf("Reject err=%v", err)
	}
	got, err := f.svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.Status != domain.ApplicationRejected {
		t.Fatalf("status=%q, want rejected", got.Status)
	}

	// No group side effects on rejection.
	if gs, _ := f.store.Groups().List(ctx); len(gs) != 0 {
		t.Fatalf("expected no groups, got %d", len(gs))
	}

	_, err = f.svc.Approve(ctx, a.ID, root.ExternalID)
	wantServiceError(t, err, 400, "ALREADY_PROCESSED")
}

func TestService_ListPending(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	alice := f.user(t, "u-alice", "clerk-alice", "Alice")
	root := f.admin(t, "u-root", "clerk-root", "Root")

	first, err := f.svc.Apply(ctx, alice.ExternalID, ApplyInput{Name: "Chess", Description: "games"})
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}
	second, err := f.svc.Apply(ctx, alice.ExternalID, ApplyInput{Name: "Poetry", Description: "readings"})
	if err != nil {
		t.Fatalf("Apply err=%v", err)
	}

	pending, err := f.svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending err=%v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len=%d, want 2", len(pending))
	}
	if pending[0].ApplicantName != "Alice" {
		t.Fatalf("applicant name=%q", pending[0].ApplicantName)
	}

	if err := f.svc.Reject(ctx, first.ID, root.ExternalID); err != nil {
		t.Fatalf("Reject err=%v", err)
	}
	pending, _ = f.svc.ListPending(ctx)
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("pending=%+v", pending)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.svc.Get(context.Background(), "a-missing")
	wantServiceError(t, err, 404, "APPLICATION_NOT_FOUND")
}
