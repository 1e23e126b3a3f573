package http

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eternals-studio/portal/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Company  string `json:"company"`
}

// handleRegister is the public self-service signup. It never accepts a role:
// every account created here is a client. Staff accounts come from the
// admin-invite endpoint.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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

	u, err := s.auth.Register(r.Context(), req.Email, req.Password, req.FullName, req.Company)
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

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        any    `json:"user"`
}

// handleLogin accepts a form-encoded body (username=email, password), the
// shape OAuth2 password-style frontends post.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "form body required", 1101)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("username")))
	pass := r.PostFormValue("password")
	if email == "" || pass == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "username and password required", 1101)
		return
	}

	tok, u, err := s.auth.Login(r.Context(), email, pass)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "incorrect email or password", 1105)
			return
		}
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, loginResponse{AccessToken: tok, TokenType: "bearer", User: u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	WriteJSON(w, http.StatusOK, u)
}

// handleProviders lists which social providers are configured. Disabled
// providers are reported false so the frontend can grey out the button.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	names := s.providers.Names()
	enabled := map[string]bool{"discord": false, "google": false}
	for _, n := range names {
		enabled[n] = true
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"providers": names,
		"enabled":   enabled,
	})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("internal error", zap.Error(err))
	WriteError(w, http.StatusInternalServerError, "internal_error", "unexpected server error", 1500)
}
