package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/eternals-studio/portal/internal/authz"
)

func (s *Server) routes(r chi.Router) {
	// public
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Get("/auth/providers", s.handleProviders)
	r.Get("/auth/{provider}/login", s.handleSocialLogin)
	r.Get("/auth/{provider}/callback", s.handleSocialCallback)

	r.Get("/testimonials", s.handleListTestimonials)
	r.Post("/testimonials", s.handleCreateTestimonial)
	r.Get("/content", s.handleListContent)
	r.Get("/content/{section}", s.handleGetContent)
	r.Get("/counter-stats", s.handleGetCounterStats)

	// bearer-protected
	r.Group(func(pr chi.Router) {
		pr.Use(s.RequireAuth)

		pr.Get("/auth/me", s.handleMe)

		pr.Post("/projects", s.requireOp(authz.OpProjectCreate, s.handleCreateProject))
		pr.Get("/projects", s.requireOp(authz.OpProjectRead, s.handleListProjects))
		pr.Get("/projects/{id}", s.requireOp(authz.OpProjectRead, s.handleGetProject))
		pr.Put("/projects/{id}/status", s.requireOp(authz.OpProjectStatus, s.handleProjectStatus))

		pr.Post("/invoices", s.requireOp(authz.OpInvoiceCreate, s.handleCreateInvoice))
		pr.Get("/invoices", s.requireOp(authz.OpInvoiceRead, s.handleListInvoices))
		pr.Get("/invoices/{id}", s.requireOp(authz.OpInvoiceRead, s.handleGetInvoice))
		pr.Put("/invoices/{id}/pay", s.requireOp(authz.OpInvoicePay, s.handlePayInvoice))

		pr.Post("/projects/{id}/messages", s.requireOp(authz.OpMessageCreate, s.handleCreateMessage))
		pr.Get("/projects/{id}/messages", s.requireOp(authz.OpMessageRead, s.handleListMessages))

		pr.Post("/files/upload", s.requireOp(authz.OpFileUpload, s.handleUploadFile))
		pr.Get("/files/{id}", s.requireOp(authz.OpFileRead, s.handleDownloadFile))

		pr.Get("/testimonials/all", s.requireOp(authz.OpTestimonialMod, s.handleListAllTestimonials))
		pr.Put("/testimonials/{id}/approve", s.requireOp(authz.OpTestimonialMod, s.handleApproveTestimonial))
		pr.Delete("/testimonials/{id}", s.requireOp(authz.OpTestimonialMod, s.handleDeleteTestimonial))

		pr.Put("/content/{section}", s.requireOp(authz.OpContentUpdate, s.handleUpsertContent))
		pr.Put("/counter-stats", s.requireOp(authz.OpCounterUpdate, s.handleUpdateCounterStats))

		pr.Get("/admin/users", s.requireOp(authz.OpUserList, s.handleListUsers))
		pr.Post("/admin/users", s.requireOp(authz.OpUserCreate, s.handleInviteUser))
		pr.Put("/admin/users/{id}/role", s.requireOp(authz.OpUserRoleUpdate, s.handleUpdateUserRole))
		pr.Delete("/admin/users/{id}", s.requireOp(authz.OpUserDelete, s.handleDeleteUser))
	})
}
