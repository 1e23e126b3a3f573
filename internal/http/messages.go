package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eternals-studio/portal/internal/store/core"
)

// projectForThread loads the project behind a message thread and applies the
// ownership gate. Message threads stay open while the project is locked.
func (s *Server) projectForThread(w http.ResponseWriter, r *http.Request) (*core.Project, bool) {
	u, _ := UserFrom(r.Context())
	p, err := s.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "project not found", 1404)
			return nil, false
		}
		s.internalError(w, err)
		return nil, false
	}
	if !ownsProject(u, p) {
		WriteError(w, http.StatusForbidden, "forbidden", "not your project", 1302)
		return nil, false
	}
	return p, true
}

type createMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectForThread(w, r)
	if !ok {
		return
	}
	var req createMessageRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "content required", 1101)
		return
	}

	u, _ := UserFrom(r.Context())
	m := &core.Message{
		ID:        uuid.NewString(),
		ProjectID: p.ID,
		SenderID:  u.ID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateMessage(r.Context(), m); err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	p, ok := s.projectForThread(w, r)
	if !ok {
		return
	}
	msgs, err := s.store.ListMessagesByProject(r.Context(), p.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, msgs)
}
