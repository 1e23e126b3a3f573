// Package memory implements core.Repository with in-process maps.
// Used by tests and as the dev fallback when no MONGO_URL is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eternals-studio/portal/internal/store/core"
)

type Store struct {
	mu sync.RWMutex

	users        map[string]*core.User // by id
	projects     map[string]*core.Project
	invoices     map[string]*core.Invoice
	messages     map[string]*core.Message
	testimonials map[string]*core.Testimonial
	content      map[string]*core.ContentSection // by section name
	files        map[string]*core.FileRecord
	counters     *core.CounterStats
}

func New() *Store {
	return &Store{
		users:        map[string]*core.User{},
		projects:     map[string]*core.Project{},
		invoices:     map[string]*core.Invoice{},
		messages:     map[string]*core.Message{},
		testimonials: map[string]*core.Testimonial{},
		content:      map[string]*core.ContentSection{},
		files:        map[string]*core.FileRecord{},
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if strings.EqualFold(ex.Email, u.Email) {
			return core.ErrDuplicate
		}
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByOAuthLink(ctx context.Context, provider, providerID string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if link, ok := u.OAuthProviders[provider]; ok && link.ProviderID == providerID {
			return copyUser(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sortByCreated(out, func(u *core.User) time.Time { return u.CreatedAt })
	return out, nil
}

func (s *Store) RecordLogin(ctx context.Context, userID, method string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	t := at
	u.LastLogin = &t
	u.LoginMethod = method
	return nil
}

func (s *Store) UpsertOAuthLink(ctx context.Context, userID, provider string, link core.OAuthLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	if u.OAuthProviders == nil {
		u.OAuthProviders = map[string]core.OAuthLink{}
	}
	u.OAuthProviders[provider] = link
	return nil
}

func (s *Store) UpdateUserRole(ctx context.Context, userID string, role core.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return core.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

// ---- projects ----

func (s *Store) CreateProject(ctx context.Context, p *core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = copyProject(p)
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyProject(p), nil
}

func (s *Store) ListProjects(ctx context.Context) ([]*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, copyProject(p))
	}
	sortByCreated(out, func(p *core.Project) time.Time { return p.CreatedAt })
	return out, nil
}

func (s *Store) ListProjectsByClient(ctx context.Context, clientID string) ([]*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Project
	for _, p := range s.projects {
		if p.ClientID == clientID {
			out = append(out, copyProject(p))
		}
	}
	sortByCreated(out, func(p *core.Project) time.Time { return p.CreatedAt })
	return out, nil
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id string, status core.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Status = status
	return nil
}

func (s *Store) AppendProjectFile(ctx context.Context, id, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return core.ErrNotFound
	}
	p.Files = append(p.Files, fileID)
	return nil
}

func (s *Store) AttachInvoice(ctx context.Context, projectID, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return core.ErrNotFound
	}
	p.InvoiceID = invoiceID
	p.Locked = true
	return nil
}

func (s *Store) ReleaseInvoice(ctx context.Context, invoiceID string, status core.ProjectStatus) (*core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.InvoiceID == invoiceID {
			p.Locked = false
			if status != "" {
				p.Status = status
			}
			return copyProject(p), nil
		}
	}
	return nil, core.ErrNotFound
}

// ---- invoices ----

func (s *Store) CreateInvoice(ctx context.Context, inv *core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.invoices[inv.ID] = &cp
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*core.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]*core.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		cp := *inv
		out = append(out, &cp)
	}
	sortByCreated(out, func(i *core.Invoice) time.Time { return i.CreatedAt })
	return out, nil
}

func (s *Store) ListInvoicesByProjects(ctx context.Context, projectIDs []string) ([]*core.Invoice, error) {
	set := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		set[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Invoice
	for _, inv := range s.invoices {
		if _, ok := set[inv.ProjectID]; ok {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sortByCreated(out, func(i *core.Invoice) time.Time { return i.CreatedAt })
	return out, nil
}

func (s *Store) UpdateInvoiceStatus(ctx context.Context, id string, status core.InvoiceStatus, paidAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return core.ErrNotFound
	}
	inv.Status = status
	if paidAt != nil {
		t := *paidAt
		inv.PaidAt = &t
	}
	return nil
}

// ---- messages ----

func (s *Store) CreateMessage(ctx context.Context, m *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *Store) ListMessagesByProject(ctx context.Context, projectID string) ([]*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Message
	for _, m := range s.messages {
		if m.ProjectID == projectID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sortByCreated(out, func(m *core.Message) time.Time { return m.CreatedAt })
	return out, nil
}

// ---- testimonials ----

func (s *Store) CreateTestimonial(ctx context.Context, t *core.Testimonial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testimonials[t.ID] = copyTestimonial(t)
	return nil
}

func (s *Store) GetTestimonial(ctx context.Context, id string) (*core.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.testimonials[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyTestimonial(t), nil
}

func (s *Store) ListTestimonials(ctx context.Context, approvedOnly bool) ([]*core.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Testimonial
	for _, t := range s.testimonials {
		if approvedOnly && !t.Approved {
			continue
		}
		out = append(out, copyTestimonial(t))
	}
	sortByCreated(out, func(t *core.Testimonial) time.Time { return t.CreatedAt })
	return out, nil
}

func (s *Store) CountApprovedTestimonials(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.testimonials {
		if t.Approved {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetTestimonialApproved(ctx context.Context, id string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.testimonials[id]
	if !ok {
		return core.ErrNotFound
	}
	t.Approved = approved
	return nil
}

func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.testimonials[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.testimonials, id)
	return nil
}

// ---- content sections ----

func (s *Store) GetContentSection(ctx context.Context, sectionName string) (*core.ContentSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.content[sectionName]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyContent(cs), nil
}

func (s *Store) ListContentSections(ctx context.Context) ([]*core.ContentSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.ContentSection, 0, len(s.content))
	for _, cs := range s.content {
		out = append(out, copyContent(cs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionName < out[j].SectionName })
	return out, nil
}

func (s *Store) UpsertContentSection(ctx context.Context, cs *core.ContentSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[cs.SectionName] = copyContent(cs)
	return nil
}

// ---- files ----

func (s *Store) CreateFileRecord(ctx context.Context, f *core.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.files[f.ID] = &cp
	return nil
}

func (s *Store) GetFileRecord(ctx context.Context, id string) (*core.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

// ---- counter stats ----

func (s *Store) GetCounterStats(ctx context.Context) (*core.CounterStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.counters == nil {
		return nil, core.ErrNotFound
	}
	cp := *s.counters
	return &cp, nil
}

func (s *Store) PutCounterStats(ctx context.Context, cs *core.CounterStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cs
	s.counters = &cp
	return nil
}

func sortByCreated[T any](xs []T, at func(T) time.Time) {
	sort.SliceStable(xs, func(i, j int) bool { return at(xs[i]).Before(at(xs[j])) })
}

// The copy helpers clone reference fields too, so callers can never reach
// stored state through a returned record (or mutate the store by keeping a
// pointer they passed in).

func copyUser(u *core.User) *core.User {
	cp := *u
	if u.OAuthProviders != nil {
		cp.OAuthProviders = make(map[string]core.OAuthLink, len(u.OAuthProviders))
		for k, v := range u.OAuthProviders {
			cp.OAuthProviders[k] = v
		}
	}
	return &cp
}

func copyProject(p *core.Project) *core.Project {
	cp := *p
	if p.Files != nil {
		cp.Files = make([]string, len(p.Files))
		copy(cp.Files, p.Files)
	}
	return &cp
}

func copyTestimonial(t *core.Testimonial) *core.Testimonial {
	cp := *t
	if t.Highlights != nil {
		cp.Highlights = make([]string, len(t.Highlights))
		copy(cp.Highlights, t.Highlights)
	}
	return &cp
}

func copyContent(cs *core.ContentSection) *core.ContentSection {
	cp := *cs
	if cs.Content != nil {
		cp.Content = make(map[string]any, len(cs.Content))
		for k, v := range cs.Content {
			cp.Content[k] = v
		}
	}
	return &cp
}
