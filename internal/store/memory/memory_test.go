package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eternals-studio/portal/internal/store/core"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateUser(ctx, &core.User{ID: "a", Email: "x@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// email uniqueness is case-insensitive, matching the mongo index collation
	if err := s.CreateUser(ctx, &core.User{ID: "b", Email: "X@Example.com"}); !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("duplicate: got %v, want ErrDuplicate", err)
	}
}

func TestUserLookupsReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateUser(ctx, &core.User{ID: "a", Email: "x@example.com", Role: core.RoleClient}); err != nil {
		t.Fatalf("create: %v", err)
	}
	link := core.OAuthLink{ProviderID: "d-1", Email: "x@example.com", LinkedAt: time.Now()}
	if err := s.UpsertOAuthLink(ctx, "a", "discord", link); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	u, err := s.GetUserByID(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// mutating the copy, scalar fields and the link map alike, must not
	// leak back into the store
	u.Role = core.RoleSuperAdmin
	u.OAuthProviders["google"] = core.OAuthLink{ProviderID: "g-1"}

	again, _ := s.GetUserByID(ctx, "a")
	if again.Role != core.RoleClient {
		t.Errorf("stored role changed to %s through a returned copy", again.Role)
	}
	if _, ok := again.OAuthProviders["google"]; ok {
		t.Error("link map is shared with the stored record")
	}
}

func TestProjectCopiesDetachFiles(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateProject(ctx, &core.Project{ID: "p1", Files: []string{"f1"}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.Files[0] = "clobbered"

	again, _ := s.GetProject(ctx, "p1")
	if again.Files[0] != "f1" {
		t.Errorf("stored files = %v, slice is shared with a returned copy", again.Files)
	}
}

func TestOAuthLinkResolution(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateUser(ctx, &core.User{ID: "a", Email: "x@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.GetUserByOAuthLink(ctx, "discord", "d-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unlinked: got %v, want ErrNotFound", err)
	}

	link := core.OAuthLink{ProviderID: "d-1", Email: "x@example.com", LinkedAt: time.Now()}
	if err := s.UpsertOAuthLink(ctx, "a", "discord", link); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	u, err := s.GetUserByOAuthLink(ctx, "discord", "d-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.ID != "a" {
		t.Errorf("resolved %s, want a", u.ID)
	}
	// same provider id under another provider does not match
	if _, err := s.GetUserByOAuthLink(ctx, "google", "d-1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-provider lookup: got %v, want ErrNotFound", err)
	}
}

func TestAttachReleaseInvoice(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateProject(ctx, &core.Project{ID: "p1", Status: core.ProjectDraft}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.AttachInvoice(ctx, "p1", "inv1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	p, _ := s.GetProject(ctx, "p1")
	if !p.Locked || p.InvoiceID != "inv1" {
		t.Fatalf("after attach: locked=%v invoice=%q", p.Locked, p.InvoiceID)
	}

	released, err := s.ReleaseInvoice(ctx, "inv1", core.ProjectInProgress)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.Locked {
		t.Error("still locked after release")
	}
	if released.Status != core.ProjectInProgress {
		t.Errorf("status = %s, want in_progress", released.Status)
	}

	if _, err := s.ReleaseInvoice(ctx, "no-such-invoice", core.ProjectDraft); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown invoice: got %v, want ErrNotFound", err)
	}
}

func TestNotFoundSentinels(t *testing.T) {
	s := New()
	ctx := context.Background()

	checks := []error{
		func() error { _, err := s.GetProject(ctx, "x"); return err }(),
		func() error { _, err := s.GetInvoice(ctx, "x"); return err }(),
		func() error { _, err := s.GetTestimonial(ctx, "x"); return err }(),
		func() error { _, err := s.GetContentSection(ctx, "x"); return err }(),
		func() error { _, err := s.GetFileRecord(ctx, "x"); return err }(),
		func() error { _, err := s.GetCounterStats(ctx); return err }(),
		s.UpdateUserRole(ctx, "x", core.RoleAdmin),
		s.DeleteUser(ctx, "x"),
		s.SetTestimonialApproved(ctx, "x", true),
		s.UpdateProjectStatus(ctx, "x", core.ProjectReview),
	}
	for i, err := range checks {
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("check %d: got %v, want ErrNotFound", i, err)
		}
	}
}

func TestListScoping(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.CreateProject(ctx, &core.Project{ID: "p1", ClientID: "a", CreatedAt: now})
	_ = s.CreateProject(ctx, &core.Project{ID: "p2", ClientID: "b", CreatedAt: now.Add(time.Second)})
	_ = s.CreateInvoice(ctx, &core.Invoice{ID: "i1", ProjectID: "p1", CreatedAt: now})
	_ = s.CreateInvoice(ctx, &core.Invoice{ID: "i2", ProjectID: "p2", CreatedAt: now})

	ps, _ := s.ListProjectsByClient(ctx, "a")
	if len(ps) != 1 || ps[0].ID != "p1" {
		t.Errorf("projects for a: %+v", ps)
	}
	invs, _ := s.ListInvoicesByProjects(ctx, []string{"p1"})
	if len(invs) != 1 || invs[0].ID != "i1" {
		t.Errorf("invoices for p1: %+v", invs)
	}
	invs, _ = s.ListInvoicesByProjects(ctx, nil)
	if len(invs) != 0 {
		t.Errorf("invoices for no projects: %+v", invs)
	}
}

func TestTestimonialApprovalFilter(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.CreateTestimonial(ctx, &core.Testimonial{ID: "t1", Approved: true})
	_ = s.CreateTestimonial(ctx, &core.Testimonial{ID: "t2"})

	approved, _ := s.ListTestimonials(ctx, true)
	if len(approved) != 1 {
		t.Errorf("approved = %d, want 1", len(approved))
	}
	all, _ := s.ListTestimonials(ctx, false)
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}
	n, _ := s.CountApprovedTestimonials(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
