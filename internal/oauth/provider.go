// Package oauth bridges external identity providers' authorization-code
// flows to local user accounts. Each provider is described by its three
// endpoints plus client credentials; the flow keeps no server-side session,
// only the issued state value survives the browser round trip (persisted in
// the cache so the callback can verify it).
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnknownProvider is returned when a provider name is not configured.
// At login-initiate this is a synchronous client error; on callback it
// becomes an error redirect like every other failure.
var ErrUnknownProvider = errors.New("unknown_provider")

// UpstreamError is a terminal failure talking to the provider (token
// exchange or user-info fetch). Code is a short diagnostic carried to the
// frontend in the error redirect.
type UpstreamError struct {
	Code string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("oauth upstream: %s: %v", e.Code, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Identity is a provider response normalized to what reconciliation needs.
type Identity struct {
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Provider is one configured OAuth 2.0 authorization-code backend.
type Provider struct {
	Name             string
	AuthEndpoint     string
	TokenEndpoint    string
	UserInfoEndpoint string
	Scopes           []string
	ClientID         string
	ClientSecret     string
	RedirectURI      string

	// extraAuthParams are provider-specific additions to the authorization
	// URL (e.g. Google's access_type/prompt).
	extraAuthParams map[string]string

	// normalize maps the raw user-info JSON to an Identity.
	normalize func(map[string]any) Identity

	http *http.Client
}

func (p *Provider) client() *http.Client {
	if p.http == nil {
		p.http = &http.Client{Timeout: 10 * time.Second}
	}
	return p.http
}

// AuthURL builds the provider authorization URL embedding the given state.
func (p *Provider) AuthURL(state string) string {
	u, _ := url.Parse(p.AuthEndpoint)
	q := u.Query()
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(p.Scopes, " "))
	q.Set("state", state)
	for k, v := range p.extraAuthParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

// ExchangeCode trades the authorization code for a provider access token.
// Any non-2xx response or missing access token is an UpstreamError.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &UpstreamError{Code: "token_exchange_failed", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return "", &UpstreamError{Code: "token_exchange_failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", &UpstreamError{Code: "token_exchange_failed",
			Err: fmt.Errorf("%s token endpoint: status %d", p.Name, resp.StatusCode)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", &UpstreamError{Code: "token_exchange_failed", Err: err}
	}
	if tr.Error != "" {
		return "", &UpstreamError{Code: "token_exchange_failed",
			Err: fmt.Errorf("%s: %s - %s", p.Name, tr.Error, tr.ErrorDesc)}
	}
	if tr.AccessToken == "" {
		return "", &UpstreamError{Code: "token_exchange_failed",
			Err: fmt.Errorf("%s: no access_token in response", p.Name)}
	}
	return tr.AccessToken, nil
}

// FetchIdentity calls the user-info endpoint and normalizes the response.
func (p *Provider) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoEndpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Code: "userinfo_failed", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, &UpstreamError{Code: "userinfo_failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Code: "userinfo_failed",
			Err: fmt.Errorf("%s userinfo: status %d", p.Name, resp.StatusCode)}
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &UpstreamError{Code: "userinfo_failed", Err: err}
	}
	id := p.normalize(raw)
	if id.ProviderID == "" || id.Email == "" {
		return nil, &UpstreamError{Code: "userinfo_failed",
			Err: fmt.Errorf("%s userinfo: missing id or email", p.Name)}
	}
	return &id, nil
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
