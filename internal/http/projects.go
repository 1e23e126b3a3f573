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

// ownsProject is the second gate after the role check: clients only reach
// their own projects, staff roles are exempt.
func ownsProject(u *core.User, p *core.Project) bool {
	return authz.OwnershipExempt(u.Role) || p.ClientID == u.ID
}

type createProjectRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ClientID    string     `json:"client_id"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.ClientID == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "title and client_id required", 1101)
		return
	}
	if _, err := s.store.GetUserByID(r.Context(), req.ClientID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusBadRequest, "invalid_request", "client not found", 1101)
			return
		}
		s.internalError(w, err)
		return
	}

	p, err := s.flow.CreateProject(r.Context(), req.ClientID, req.Title, req.Description, req.DueDate)
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())

	var (
		projects []*core.Project
		err      error
	)
	if authz.OwnershipExempt(u.Role) {
		projects, err = s.store.ListProjects(r.Context())
	} else {
		projects, err = s.store.ListProjectsByClient(r.Context(), u.ID)
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	p, err := s.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "project not found", 1404)
			return
		}
		s.internalError(w, err)
		return
	}
	if !ownsProject(u, p) {
		WriteError(w, http.StatusForbidden, "forbidden", "not your project", 1302)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type projectStatusRequest struct {
	Status core.ProjectStatus `json:"status"`
}

func (s *Server) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	var req projectStatusRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	p, err := s.flow.SetProjectStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "project not found", 1404)
		case errors.Is(err, workflow.ErrProjectLocked):
			WriteError(w, http.StatusConflict, "project_locked", "project is locked pending payment", 1405)
		case errors.Is(err, workflow.ErrBadTransition):
			WriteError(w, http.StatusUnprocessableEntity, "invalid_status_transition", err.Error(), 1406)
		default:
			s.internalError(w, err)
		}
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
