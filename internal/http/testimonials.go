package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eternals-studio/portal/internal/store/core"
)

// handleListTestimonials is the public read: approved entries only.
func (s *Server) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.ListTestimonials(r.Context(), true)
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ts)
}

// handleListAllTestimonials is the moderator view including unapproved ones.
func (s *Server) handleListAllTestimonials(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.ListTestimonials(r.Context(), false)
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ts)
}

type createTestimonialRequest struct {
	ClientName string   `json:"client_name"`
	ClientRole string   `json:"client_role"`
	Avatar     string   `json:"client_avatar"`
	Rating     int      `json:"rating"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Highlights []string `json:"highlights"`
}

// handleCreateTestimonial is a public submit. Entries land unapproved and
// invisible until a moderator approves them.
func (s *Server) handleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req createTestimonialRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.ClientName == "" || req.Content == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "client_name and content required", 1101)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "rating must be 1-5", 1101)
		return
	}

	t := &core.Testimonial{
		ID:         uuid.NewString(),
		ClientName: req.ClientName,
		ClientRole: req.ClientRole,
		Avatar:     req.Avatar,
		Rating:     req.Rating,
		Title:      req.Title,
		Content:    req.Content,
		Highlights: req.Highlights,
		Approved:   false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateTestimonial(r.Context(), t); err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, t)
}

func (s *Server) handleApproveTestimonial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.SetTestimonialApproved(r.Context(), id, true); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "testimonial not found", 1404)
			return
		}
		s.internalError(w, err)
		return
	}
	t, err := s.store.GetTestimonial(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTestimonial(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "testimonial not found", 1404)
			return
		}
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
