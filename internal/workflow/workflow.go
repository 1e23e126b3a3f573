// Package workflow owns the project lifecycle and the invoice/lock coupling.
//
// Creating an invoice for a project locks it; paying the invoice unlocks it.
// The lock is orthogonal to the status machine: a locked project keeps its
// status and regains it on unlock, except that draft and on_hold advance to
// in_progress because payment is what kicks the work off.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eternals-studio/portal/internal/observability/logger"
	"github.com/eternals-studio/portal/internal/store/core"
)

var (
	// ErrProjectLocked rejects lifecycle mutations while the billing lock is
	// set. Messages and file reads stay open; see Service method docs.
	ErrProjectLocked = errors.New("project_locked")
	// ErrInvoiceFinal rejects status changes on a paid or cancelled invoice.
	ErrInvoiceFinal = errors.New("invoice_final")
	// ErrBadTransition rejects a status move the machine does not allow.
	ErrBadTransition = errors.New("invalid_status_transition")
)

// transitions is the project status machine. Any status may be parked to
// on_hold or cancelled; completed and cancelled are terminal.
var transitions = map[core.ProjectStatus][]core.ProjectStatus{
	core.ProjectDraft:      {core.ProjectInProgress, core.ProjectOnHold, core.ProjectCancelled},
	core.ProjectInProgress: {core.ProjectReview, core.ProjectOnHold, core.ProjectCancelled},
	core.ProjectReview:     {core.ProjectRevision, core.ProjectApproved, core.ProjectOnHold, core.ProjectCancelled},
	core.ProjectRevision:   {core.ProjectInProgress, core.ProjectReview, core.ProjectOnHold, core.ProjectCancelled},
	core.ProjectApproved:   {core.ProjectCompleted, core.ProjectRevision, core.ProjectOnHold, core.ProjectCancelled},
	core.ProjectCompleted:  {},
	core.ProjectOnHold:     {core.ProjectDraft, core.ProjectInProgress, core.ProjectReview, core.ProjectRevision, core.ProjectApproved, core.ProjectCancelled},
	core.ProjectCancelled:  {},
}

func canTransition(from, to core.ProjectStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Service struct {
	store core.Repository
	log   *zap.Logger
}

func NewService(store core.Repository) *Service {
	return &Service{store: store, log: logger.Named("workflow")}
}

// CreateProject registers a new engagement for a client in draft status.
func (s *Service) CreateProject(ctx context.Context, clientID, title, description string, dueDate *time.Time) (*core.Project, error) {
	p := &core.Project{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		ClientID:    clientID,
		Status:      core.ProjectDraft,
		Files:       []string{},
		DueDate:     dueDate,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("project created", zap.String("project_id", p.ID), zap.String("client_id", clientID))
	return p, nil
}

// SetProjectStatus moves the project through the status machine. Rejected
// while the billing lock is set.
func (s *Service) SetProjectStatus(ctx context.Context, projectID string, to core.ProjectStatus) (*core.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Locked {
		return nil, ErrProjectLocked
	}
	if p.Status == to {
		return p, nil
	}
	if !canTransition(p.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, p.Status, to)
	}
	if err := s.store.UpdateProjectStatus(ctx, projectID, to); err != nil {
		return nil, err
	}
	s.log.Info("project status changed",
		zap.String("project_id", projectID),
		zap.String("from", string(p.Status)), zap.String("to", string(to)))
	p.Status = to
	return p, nil
}

// CreateInvoice issues an invoice against the project and sets the billing
// lock in the same call. The lock-set is unconditional and idempotent:
// invoicing an already-locked project succeeds and points the lock at the
// new invoice.
func (s *Service) CreateInvoice(ctx context.Context, projectID, description string, amount float64, dueDate *time.Time) (*core.Invoice, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	inv := &core.Invoice{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Amount:      amount,
		Description: description,
		Status:      core.InvoiceSent,
		DueDate:     dueDate,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.store.AttachInvoice(ctx, projectID, inv.ID); err != nil {
		return nil, err
	}
	s.log.Info("invoice issued",
		zap.String("invoice_id", inv.ID), zap.String("project_id", projectID),
		zap.Float64("amount", amount))
	return inv, nil
}

// PayInvoice marks the invoice paid and releases the project lock. The
// project resumes its pre-lock status, except draft and on_hold advance to
// in_progress. Paying a paid or cancelled invoice is rejected.
func (s *Service) PayInvoice(ctx context.Context, invoiceID string) (*core.Invoice, *core.Project, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv.Status == core.InvoicePaid || inv.Status == core.InvoiceCancelled {
		return nil, nil, ErrInvoiceFinal
	}

	now := time.Now().UTC()
	if err := s.store.UpdateInvoiceStatus(ctx, invoiceID, core.InvoicePaid, &now); err != nil {
		return nil, nil, err
	}
	inv.Status = core.InvoicePaid
	inv.PaidAt = &now

	p, err := s.store.GetProject(ctx, inv.ProjectID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Orphaned invoice: payment still sticks.
			return inv, nil, nil
		}
		return nil, nil, err
	}
	next := p.Status
	if p.Status == core.ProjectDraft || p.Status == core.ProjectOnHold {
		next = core.ProjectInProgress
	}
	p, err = s.store.ReleaseInvoice(ctx, invoiceID, next)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, nil, err
	}
	s.log.Info("invoice paid",
		zap.String("invoice_id", invoiceID), zap.String("project_id", inv.ProjectID))
	return inv, p, nil
}

// NormalizeInvoice derives overdue at read time: a sent invoice past its due
// date reads as overdue without a stored status change.
func NormalizeInvoice(inv *core.Invoice, now time.Time) *core.Invoice {
	if inv.Status == core.InvoiceSent && inv.DueDate != nil && now.After(*inv.DueDate) {
		out := *inv
		out.Status = core.InvoiceOverdue
		return &out
	}
	return inv
}

// FileAccessible reports whether a file tier is served while its project is
// locked. Only paid-tier files are withheld until the lock clears; free and
// contract tiers stay readable.
func FileAccessible(tier core.FileTier, projectLocked bool) bool {
	if !projectLocked {
		return true
	}
	return tier != core.TierPaid
}

// AttachFile appends an uploaded file to the project record. Uploads are
// allowed on locked projects; only downloads of gated tiers are withheld.
func (s *Service) AttachFile(ctx context.Context, projectID, fileID string) error {
	return s.store.AppendProjectFile(ctx, projectID, fileID)
}
