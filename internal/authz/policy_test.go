package authz

import (
	"testing"

	"github.com/eternals-studio/portal/internal/store/core"
)

// want mirrors the policy table exhaustively, one row per operation.
var want = map[string]map[core.Role]bool{
	OpProjectCreate:  {core.RoleClient: false, core.RoleClientManager: false, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpProjectRead:    {core.RoleClient: true, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpProjectStatus:  {core.RoleClient: false, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpInvoiceCreate:  {core.RoleClient: false, core.RoleClientManager: false, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpInvoiceRead:    {core.RoleClient: true, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpInvoicePay:     {core.RoleClient: true, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpMessageCreate:  {core.RoleClient: true, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpMessageRead:    {core.RoleClient: true, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpFileUpload:     {core.RoleClient: true, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpFileRead:       {core.RoleClient: true, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpContentUpdate:  {core.RoleClient: false, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpTestimonialMod: {core.RoleClient: false, core.RoleClientManager: true, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpCounterUpdate:  {core.RoleClient: false, core.RoleClientManager: false, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpUserList:       {core.RoleClient: false, core.RoleClientManager: false, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpUserCreate:     {core.RoleClient: false, core.RoleClientManager: false, core.RoleAdmin: true, core.RoleSuperAdmin: true},
	OpUserRoleUpdate: {core.RoleClient: false, core.RoleClientManager: false, core.RoleAdmin: false, core.RoleSuperAdmin: true},
	OpUserDelete:     {core.RoleClient: false, core.RoleClientManager: false, core.RoleAdmin: false, core.RoleSuperAdmin: true},
}

func TestAllowedExhaustive(t *testing.T) {
	if len(want) != len(Operations()) {
		t.Fatalf("table covers %d operations, policy has %d", len(want), len(Operations()))
	}
	for op, byRole := range want {
		for role, allowed := range byRole {
			if got := Allowed(role, op); got != allowed {
				t.Errorf("Allowed(%s, %s) = %v, want %v", role, op, got, allowed)
			}
		}
	}
}

// The tiers are not a ladder: client_manager moderates content but cannot
// touch user accounts, and admin cannot re-role or delete users.
func TestNonMonotonicRoles(t *testing.T) {
	if !Allowed(core.RoleClientManager, OpTestimonialMod) {
		t.Error("client_manager should moderate testimonials")
	}
	if Allowed(core.RoleClientManager, OpUserList) {
		t.Error("client_manager should not list users")
	}
	if Allowed(core.RoleAdmin, OpUserRoleUpdate) {
		t.Error("admin should not change roles")
	}
	if Allowed(core.RoleAdmin, OpUserDelete) {
		t.Error("admin should not delete users")
	}
}

func TestUnknownDenied(t *testing.T) {
	if Allowed(core.RoleSuperAdmin, "no.such.op") {
		t.Error("unknown operation allowed")
	}
	if Allowed(core.Role("editor"), OpProjectRead) {
		t.Error("unknown role allowed")
	}
}

func TestOwnershipExempt(t *testing.T) {
	if OwnershipExempt(core.RoleClient) {
		t.Error("client must pass ownership checks")
	}
	for _, r := range []core.Role{core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin} {
		if !OwnershipExempt(r) {
			t.Errorf("%s should bypass ownership checks", r)
		}
	}
}
