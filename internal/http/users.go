package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eternals-studio/portal/internal/auth"
	"github.com/eternals-studio/portal/internal/store/core"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

type inviteUserRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	FullName string    `json:"full_name"`
	Role     core.Role `json:"role"`
	Company  string    `json:"company"`
}

// handleInviteUser is the privileged account-creation path. Unlike public
// registration it accepts a role, but only the four known values, and only
// callers the policy already admitted reach this point.
func (s *Server) handleInviteUser(w http.ResponseWriter, r *http.Request) {
	var req inviteUserRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		WriteError(w, http.StatusBadRequest, "invalid_request", "valid email required", 1101)
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters", 1101)
		return
	}
	if !req.Role.Valid() {
		WriteError(w, http.StatusBadRequest, "invalid_request", "unknown role", 1101)
		return
	}
	// Admins may not mint super admins.
	caller, _ := UserFrom(r.Context())
	if req.Role == core.RoleSuperAdmin && caller.Role != core.RoleSuperAdmin {
		WriteError(w, http.StatusForbidden, "forbidden", "only a super admin can create one", 1301)
		return
	}

	u, err := s.auth.CreateUser(r.Context(), req.Email, req.Password, req.FullName, req.Role, req.Company)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateIdentity) {
			WriteError(w, http.StatusConflict, "duplicate_identity", "email already registered", 1104)
			return
		}
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

type updateRoleRequest struct {
	Role core.Role `json:"role"`
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if !req.Role.Valid() {
		WriteError(w, http.StatusBadRequest, "invalid_request", "unknown role", 1101)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "user not found", 1404)
			return
		}
		s.internalError(w, err)
		return
	}
	u, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller, _ := UserFrom(r.Context())
	if caller.ID == id {
		WriteError(w, http.StatusBadRequest, "invalid_request", "cannot delete your own account", 1101)
		return
	}

	// Deletion is refused while the account owns active work.
	projects, err := s.store.ListProjectsByClient(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	for _, p := range projects {
		if p.Status != core.ProjectCompleted && p.Status != core.ProjectCancelled {
			WriteError(w, http.StatusConflict, "has_active_work", "user owns active projects", 1408)
			return
		}
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "user not found", 1404)
			return
		}
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
