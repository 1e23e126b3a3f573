package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eternals-studio/portal/internal/store/core"
)

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	sections, err := s.store.ListContentSections(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sections)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.GetContentSection(r.Context(), chi.URLParam(r, "section"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "content section not found", 1404)
			return
		}
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cs)
}

type upsertContentRequest struct {
	Page    string         `json:"page"`
	Content map[string]any `json:"content"`
}

func (s *Server) handleUpsertContent(w http.ResponseWriter, r *http.Request) {
	var req upsertContentRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if len(req.Content) == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "content required", 1101)
		return
	}

	u, _ := UserFrom(r.Context())
	section := chi.URLParam(r, "section")

	cs, err := s.store.GetContentSection(r.Context(), section)
	if errors.Is(err, core.ErrNotFound) {
		cs = &core.ContentSection{ID: uuid.NewString(), SectionName: section}
	} else if err != nil {
		s.internalError(w, err)
		return
	}
	if req.Page != "" {
		cs.Page = req.Page
	}
	cs.Content = req.Content
	cs.UpdatedAt = time.Now().UTC()
	cs.UpdatedBy = u.ID

	if err := s.store.UpsertContentSection(r.Context(), cs); err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cs)
}

// handleGetCounterStats is public; the approved-testimonial count is synced
// on every read and the default document is created on first read.
func (s *Server) handleGetCounterStats(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.GetCounterStats(r.Context())
	if errors.Is(err, core.ErrNotFound) {
		cs = &core.CounterStats{
			ID:                uuid.NewString(),
			ProjectsCompleted: 0,
			TeamMembers:       5,
			SupportAvailable:  "24/7",
			LastUpdated:       time.Now().UTC(),
		}
		if err := s.store.PutCounterStats(r.Context(), cs); err != nil {
			s.internalError(w, err)
			return
		}
	} else if err != nil {
		s.internalError(w, err)
		return
	}

	if n, err := s.store.CountApprovedTestimonials(r.Context()); err == nil && n != cs.TestimonialsCount {
		cs.TestimonialsCount = n
		_ = s.store.PutCounterStats(r.Context(), cs)
	}
	WriteJSON(w, http.StatusOK, cs)
}

type updateCounterStatsRequest struct {
	ProjectsCompleted *int    `json:"projects_completed"`
	TeamMembers       *int    `json:"team_members"`
	SupportAvailable  *string `json:"support_available"`
}

func (s *Server) handleUpdateCounterStats(w http.ResponseWriter, r *http.Request) {
	var req updateCounterStatsRequest
	if !ReadJSON(w, r, &req) {
		return
	}

	u, _ := UserFrom(r.Context())
	cs, err := s.store.GetCounterStats(r.Context())
	if errors.Is(err, core.ErrNotFound) {
		cs = &core.CounterStats{ID: uuid.NewString()}
	} else if err != nil {
		s.internalError(w, err)
		return
	}

	if req.ProjectsCompleted != nil {
		cs.ProjectsCompleted = *req.ProjectsCompleted
	}
	if req.TeamMembers != nil {
		cs.TeamMembers = *req.TeamMembers
	}
	if req.SupportAvailable != nil {
		cs.SupportAvailable = *req.SupportAvailable
	}
	cs.LastUpdated = time.Now().UTC()
	cs.UpdatedBy = u.ID

	if err := s.store.PutCounterStats(r.Context(), cs); err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cs)
}
