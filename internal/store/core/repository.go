package core

import (
	"context"
	"time"
)

// Repository is the document-store surface the service runs against.
// Implementations: mongo (production) and memory (dev/tests). Operations are
// filter-and-update shaped; there are no cross-collection transactions.
type Repository interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// ---- users ----
	CreateUser(ctx context.Context, u *User) error // ErrDuplicate on existing email
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	// GetUserByOAuthLink resolves the user owning (provider, providerID).
	GetUserByOAuthLink(ctx context.Context, provider, providerID string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	// RecordLogin updates last_login and login_method.
	RecordLogin(ctx context.Context, userID, method string, at time.Time) error
	// UpsertOAuthLink attaches or refreshes the provider link on a user.
	UpsertOAuthLink(ctx context.Context, userID, provider string, link OAuthLink) error
	UpdateUserRole(ctx context.Context, userID string, role Role) error
	DeleteUser(ctx context.Context, userID string) error

	// ---- projects ----
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]*Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status ProjectStatus) error
	AppendProjectFile(ctx context.Context, id, fileID string) error
	// AttachInvoice records the invoice reference and sets the billing lock
	// in a single update.
	AttachInvoice(ctx context.Context, projectID, invoiceID string) error
	// ReleaseInvoice clears the lock on the project referencing invoiceID and
	// applies the given status in the same update.
	ReleaseInvoice(ctx context.Context, invoiceID string, status ProjectStatus) (*Project, error)

	// ---- invoices ----
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context) ([]*Invoice, error)
	ListInvoicesByProjects(ctx context.Context, projectIDs []string) ([]*Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status InvoiceStatus, paidAt *time.Time) error

	// ---- messages ----
	CreateMessage(ctx context.Context, m *Message) error
	ListMessagesByProject(ctx context.Context, projectID string) ([]*Message, error)

	// ---- testimonials ----
	CreateTestimonial(ctx context.Context, t *Testimonial) error
	GetTestimonial(ctx context.Context, id string) (*Testimonial, error)
	ListTestimonials(ctx context.Context, approvedOnly bool) ([]*Testimonial, error)
	CountApprovedTestimonials(ctx context.Context) (int, error)
	SetTestimonialApproved(ctx context.Context, id string, approved bool) error
	DeleteTestimonial(ctx context.Context, id string) error

	// ---- content sections ----
	GetContentSection(ctx context.Context, sectionName string) (*ContentSection, error)
	ListContentSections(ctx context.Context) ([]*ContentSection, error)
	UpsertContentSection(ctx context.Context, cs *ContentSection) error

	// ---- files ----
	CreateFileRecord(ctx context.Context, f *FileRecord) error
	GetFileRecord(ctx context.Context, id string) (*FileRecord, error)

	// ---- counter stats ----
	GetCounterStats(ctx context.Context) (*CounterStats, error)
	PutCounterStats(ctx context.Context, cs *CounterStats) error
}
