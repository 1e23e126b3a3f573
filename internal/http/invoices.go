package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eternals-studio/portal/internal/authz"
	"github.com/eternals-studio/portal/internal/store/core"
	"github.com/eternals-studio/portal/internal/workflow"
)

type createInvoiceRequest struct {
	ProjectID   string     `json:"project_id"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.ProjectID == "" || req.Amount <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "project_id and positive amount required", 1101)
		return
	}

	inv, err := s.flow.CreateInvoice(r.Context(), req.ProjectID, req.Description, req.Amount, req.DueDate)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "project not found", 1404)
		} else {
			s.internalError(w, err)
		}
		return
	}
	WriteJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	now := time.Now().UTC()

	var (
		invoices []*core.Invoice
		err      error
	)
	if authz.OwnershipExempt(u.Role) {
		invoices, err = s.store.ListInvoices(r.Context())
	} else {
		// Clients see invoices of their own projects only.
		var projects []*core.Project
		projects, err = s.store.ListProjectsByClient(r.Context(), u.ID)
		if err == nil {
			ids := make([]string, 0, len(projects))
			for _, p := range projects {
				ids = append(ids, p.ID)
			}
			invoices, err = s.store.ListInvoicesByProjects(r.Context(), ids)
		}
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	out := make([]*core.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, workflow.NormalizeInvoice(inv, now))
	}
	WriteJSON(w, http.StatusOK, out)
}

// invoiceFor fetches the invoice plus its owning project and applies the
// ownership gate. project may be nil for an orphaned invoice.
func (s *Server) invoiceFor(w http.ResponseWriter, r *http.Request) (*core.Invoice, bool) {
	u, _ := UserFrom(r.Context())
	inv, err := s.store.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "invoice not found", 1404)
			return nil, false
		}
		s.internalError(w, err)
		return nil, false
	}
	if !authz.OwnershipExempt(u.Role) {
		p, err := s.store.GetProject(r.Context(), inv.ProjectID)
		if err != nil || p.ClientID != u.ID {
			WriteError(w, http.StatusForbidden, "forbidden", "not your invoice", 1302)
			return nil, false
		}
	}
	return inv, true
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.invoiceFor(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, workflow.NormalizeInvoice(inv, time.Now().UTC()))
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.invoiceFor(w, r)
	if !ok {
		return
	}
	inv, p, err := s.flow.PayInvoice(r.Context(), inv.ID)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrInvoiceFinal):
			WriteError(w, http.StatusConflict, "invoice_final", "invoice already settled", 1407)
		case errors.Is(err, core.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "invoice not found", 1404)
		default:
			s.internalError(w, err)
		}
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"invoice": inv, "project": p})
}
