package core

import "time"

// Role is the coarse capability tier gating operation access.
// The set is closed; authorization keys explicit allow-sets off these values.
type Role string

const (
	RoleClient        Role = "client"
	RoleClientManager Role = "client_manager"
	RoleAdmin         Role = "admin"
	RoleSuperAdmin    Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleClientManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ProjectStatus values. "locked" is deliberately not a status: the billing
// lock is the orthogonal Project.Locked flag.
type ProjectStatus string

const (
	ProjectDraft      ProjectStatus = "draft"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectReview     ProjectStatus = "review"
	ProjectRevision   ProjectStatus = "revision"
	ProjectApproved   ProjectStatus = "approved"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// FileTier classifies uploads for the billing gate. While a project is
// locked its owning client loses access to paid-tier files only.
type FileTier string

const (
	TierFree     FileTier = "free"
	TierContract FileTier = "contract"
	TierPaid     FileTier = "paid"
)

// OAuthLink is one linked external identity, embedded per provider on the
// owning User. (provider, ProviderID) resolves to at most one user.
type OAuthLink struct {
	ProviderID string    `bson:"provider_id" json:"provider_id"`
	Email      string    `bson:"email" json:"email"`
	LinkedAt   time.Time `bson:"linked_at" json:"linked_at"`
	LastLogin  time.Time `bson:"last_login" json:"last_login"`
}

type User struct {
	ID        string    `bson:"id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	FullName  string    `bson:"full_name" json:"full_name"`
	Role      Role      `bson:"role" json:"role"`
	IsActive  bool      `bson:"is_active" json:"is_active"`
	Company   string    `bson:"company,omitempty" json:"company,omitempty"`
	AvatarURL string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// PasswordHash is nil for OAuth-only accounts. Never serialized to JSON.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	// OAuthProviders maps provider name -> link record.
	OAuthProviders map[string]OAuthLink `bson:"oauth_providers,omitempty" json:"oauth_providers,omitempty"`

	LastLogin   *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	LoginMethod string     `bson:"login_method,omitempty" json:"login_method,omitempty"`
}

type Project struct {
	ID              string        `bson:"id" json:"id"`
	Title           string        `bson:"title" json:"title"`
	Description     string        `bson:"description" json:"description"`
	ClientID        string        `bson:"client_id" json:"client_id"`
	AssignedAdminID string        `bson:"assigned_admin_id,omitempty" json:"assigned_admin_id,omitempty"`
	Status          ProjectStatus `bson:"status" json:"status"`
	Locked          bool          `bson:"is_locked" json:"is_locked"`
	InvoiceID       string        `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	Files           []string      `bson:"files" json:"files"`
	DueDate         *time.Time    `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
}

type Invoice struct {
	ID          string        `bson:"id" json:"id"`
	ProjectID   string        `bson:"project_id" json:"project_id"`
	Amount      float64       `bson:"amount" json:"amount"`
	Description string        `bson:"description" json:"description"`
	Status      InvoiceStatus `bson:"status" json:"status"`
	DueDate     *time.Time    `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	PaidAt      *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}

type Message struct {
	ID        string    `bson:"id" json:"id"`
	ProjectID string    `bson:"project_id" json:"project_id"`
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Content   string    `bson:"content" json:"content"`
	IsRead    bool      `bson:"is_read" json:"is_read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Testimonial struct {
	ID         string    `bson:"id" json:"id"`
	ClientName string    `bson:"client_name" json:"client_name"`
	ClientRole string    `bson:"client_role" json:"client_role"`
	Avatar     string    `bson:"client_avatar" json:"client_avatar"`
	Rating     int       `bson:"rating" json:"rating"`
	Title      string    `bson:"title" json:"title"`
	Content    string    `bson:"content" json:"content"`
	Highlights []string  `bson:"highlights" json:"highlights"`
	IsFeatured bool      `bson:"is_featured" json:"is_featured"`
	Approved   bool      `bson:"approved" json:"approved"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

type ContentSection struct {
	ID          string         `bson:"id" json:"id"`
	SectionName string         `bson:"section_name" json:"section_name"`
	Page        string         `bson:"page" json:"page"`
	Content     map[string]any `bson:"content" json:"content"`
	UpdatedAt   time.Time      `bson:"updated_at" json:"updated_at"`
	UpdatedBy   string         `bson:"updated_by" json:"updated_by"`
}

type FileRecord struct {
	ID           string    `bson:"id" json:"id"`
	OriginalName string    `bson:"original_name" json:"original_name"`
	Filename     string    `bson:"filename" json:"filename"`
	Path         string    `bson:"file_path" json:"file_path"`
	ProjectID    string    `bson:"project_id,omitempty" json:"project_id,omitempty"`
	Tier         FileTier  `bson:"tier" json:"tier"`
	UploadedBy   string    `bson:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

type CounterStats struct {
	ID                string    `bson:"id" json:"id"`
	ProjectsCompleted int       `bson:"projects_completed" json:"projects_completed"`
	TestimonialsCount int       `bson:"testimonials_count" json:"testimonials_count"`
	TeamMembers       int       `bson:"team_members" json:"team_members"`
	SupportAvailable  string    `bson:"support_available" json:"support_available"`
	LastUpdated       time.Time `bson:"last_updated" json:"last_updated"`
	UpdatedBy         string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}
