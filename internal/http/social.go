package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eternals-studio/portal/internal/oauth"
	"github.com/eternals-studio/portal/internal/store/core"
)

// handleSocialLogin starts the authorization-code flow: issue a state, build
// the provider URL. Unknown provider is the one synchronous failure here.
func (s *Server) handleSocialLogin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	p, err := s.providers.Get(name)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "unknown_provider", "provider not configured: "+name, 1106)
		return
	}
	state, err := s.states.Issue(name)
	if err != nil {
		s.internalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"authorization_url": p.AuthURL(state),
		"state":             state,
		"provider":          name,
	})
}

// handleSocialCallback lands the browser after the provider redirect. Every
// outcome is a redirect to the frontend; nothing here returns JSON or a raw
// 5xx to the user's browser.
//
// The error branch is checked before code/state: a provider error response
// (e.g. the user clicked cancel) is a definitive outcome, not a request with
// missing parameters.
func (s *Server) handleSocialCallback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		s.redirectError(w, r, name, e, q.Get("error_description"))
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		s.redirectError(w, r, name, "invalid_callback", "missing code or state")
		return
	}
	if !s.states.Consume(name, state) {
		s.redirectError(w, r, name, "invalid_state", "state mismatch or expired")
		return
	}

	p, err := s.providers.Get(name)
	if err != nil {
		s.redirectError(w, r, name, "unknown_provider", "provider not configured")
		return
	}

	accessToken, err := p.ExchangeCode(r.Context(), code)
	if err != nil {
		s.redirectUpstream(w, r, name, err)
		return
	}
	identity, err := p.FetchIdentity(r.Context(), accessToken)
	if err != nil {
		s.redirectUpstream(w, r, name, err)
		return
	}

	u, err := s.reconcile.Reconcile(r.Context(), name, identity)
	if err != nil {
		s.log.Error("oauth reconcile failed", zap.String("provider", name), zap.Error(err))
		s.redirectError(w, r, name, "reconcile_failed", "could not resolve account")
		return
	}
	tok, err := s.auth.IssueToken(u)
	if err != nil {
		s.redirectError(w, r, name, "token_mint_failed", "could not issue session")
		return
	}

	dest := s.frontendURL + landingPath(u.Role)
	v := url.Values{}
	v.Set("token", tok)
	v.Set("user_id", u.ID)
	v.Set("provider", name)
	http.Redirect(w, r, dest+"?"+v.Encode(), http.StatusTemporaryRedirect)
}

func landingPath(role core.Role) string {
	if role == core.RoleClient {
		return "/portal"
	}
	return "/dashboard"
}

func (s *Server) redirectUpstream(w http.ResponseWriter, r *http.Request, provider string, err error) {
	code := "provider_error"
	var ue *oauth.UpstreamError
	if errors.As(err, &ue) {
		code = ue.Code
	}
	s.log.Warn("oauth upstream failure", zap.String("provider", provider), zap.Error(err))
	s.redirectError(w, r, provider, code, "provider call failed")
}

func (s *Server) redirectError(w http.ResponseWriter, r *http.Request, provider, code, message string) {
	v := url.Values{}
	v.Set("error", code)
	v.Set("provider", provider)
	if message != "" {
		v.Set("message", message)
	}
	http.Redirect(w, r, s.frontendURL+"/auth/login?"+v.Encode(), http.StatusTemporaryRedirect)
}
