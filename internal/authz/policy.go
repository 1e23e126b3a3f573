// Package authz decides whether a role may perform an operation.
//
// The role tiers are not a strict ladder: client_manager moderates content
// and testimonials but has no say over user accounts, which only super_admin
// may delete or re-role. The policy is therefore an explicit allow-set per
// operation rather than an ordinal comparison.
package authz

import "github.com/eternals-studio/portal/internal/store/core"

// Operation names. Handlers gate on these; the table below is the single
// source of truth.
const (
	OpProjectCreate  = "project.create"
	OpProjectRead    = "project.read"
	OpProjectStatus  = "project.status"
	OpInvoiceCreate  = "invoice.create"
	OpInvoiceRead    = "invoice.read"
	OpInvoicePay     = "invoice.pay"
	OpMessageCreate  = "message.create"
	OpMessageRead    = "message.read"
	OpFileUpload     = "file.upload"
	OpFileRead       = "file.read"
	OpContentUpdate  = "content.update"
	OpTestimonialMod = "testimonial.moderate"
	OpCounterUpdate  = "counter.update"
	OpUserList       = "user.list"
	OpUserCreate     = "user.create"
	OpUserRoleUpdate = "user.role.update"
	OpUserDelete     = "user.delete"
)

var allow = map[string][]core.Role{
	OpProjectCreate:  {core.RoleAdmin, core.RoleSuperAdmin},
	OpProjectRead:    {core.RoleClient, core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpProjectStatus:  {core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpInvoiceCreate:  {core.RoleAdmin, core.RoleSuperAdmin},
	OpInvoiceRead:    {core.RoleClient, core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpInvoicePay:     {core.RoleClient, core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpMessageCreate:  {core.RoleClient, core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpMessageRead:    {core.RoleClient, core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpFileUpload:     {core.RoleClient, core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpFileRead:       {core.RoleClient, core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpContentUpdate:  {core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpTestimonialMod: {core.RoleClientManager, core.RoleAdmin, core.RoleSuperAdmin},
	OpCounterUpdate:  {core.RoleAdmin, core.RoleSuperAdmin},
	OpUserList:       {core.RoleAdmin, core.RoleSuperAdmin},
	OpUserCreate:     {core.RoleAdmin, core.RoleSuperAdmin},
	OpUserRoleUpdate: {core.RoleSuperAdmin},
	OpUserDelete:     {core.RoleSuperAdmin},
}

// Allowed reports whether role may perform op. Unknown operations and
// unknown roles are denied.
func Allowed(role core.Role, op string) bool {
	for _, r := range allow[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Operations returns every operation the policy knows about, for exhaustive
// table tests.
func Operations() []string {
	out := make([]string, 0, len(allow))
	for op := range allow {
		out = append(out, op)
	}
	return out
}

// OwnershipExempt reports whether the role bypasses per-resource ownership
// checks. Clients only ever see their own projects, invoices and messages;
// staff roles see everything the role gate already granted.
func OwnershipExempt(role core.Role) bool {
	return role == core.RoleClientManager || role == core.RoleAdmin || role == core.RoleSuperAdmin
}
