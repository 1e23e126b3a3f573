package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternals-studio/portal/internal/auth"
	cachemem "github.com/eternals-studio/portal/internal/cache/memory"
	"github.com/eternals-studio/portal/internal/config"
	"github.com/eternals-studio/portal/internal/jwt"
	"github.com/eternals-studio/portal/internal/oauth"
	"github.com/eternals-studio/portal/internal/observability/logger"
	"github.com/eternals-studio/portal/internal/store/core"
	"github.com/eternals-studio/portal/internal/store/memory"
	"github.com/eternals-studio/portal/internal/workflow"
)

func TestMain(m *testing.M) {
	logger.Init(logger.Config{Env: "dev", Level: "error", ServiceName: "test"})
	m.Run()
}

type fixture struct {
	t        *testing.T
	ts       *httptest.Server
	store    core.Repository
	authSvc  *auth.Service
	registry *oauth.Registry
	states   *oauth.StateStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Frontend.BaseURL = "http://frontend.test"
	cfg.Uploads.Dir = t.TempDir()

	store := memory.New()
	issuer := jwt.NewIssuer("test-secret", 30*time.Minute)
	authSvc := auth.NewService(store, issuer)
	registry := oauth.NewRegistry(cfg)
	states := oauth.NewStateStore(cachemem.New(time.Minute), time.Minute)

	srv := NewServer(Deps{
		Auth:      authSvc,
		Providers: registry,
		States:    states,
		Reconcile: oauth.NewReconciler(store),
		Flow:      workflow.NewService(store),
		Store:     store,
		Config:    cfg,
	})
	ts := httptest.NewServer(srv.Handler(nil))
	t.Cleanup(ts.Close)

	return &fixture{t: t, ts: ts, store: store, authSvc: authSvc, registry: registry, states: states}
}

// noRedirect returns a client that surfaces redirects instead of following
// them, so callback tests can inspect the Location header.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (f *fixture) request(method, path, token string, body any) *http.Response {
	f.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, rd)
	require.NoError(f.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.ts.Client().Do(req)
	require.NoError(f.t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// seed creates a user directly and returns a session token for it.
func (f *fixture) seed(email string, role core.Role) (string, *core.User) {
	f.t.Helper()
	u, err := f.authSvc.CreateUser(context.Background(), email, "password-123", "Test User", role, "")
	require.NoError(f.t, err)
	tok, err := f.authSvc.IssueToken(u)
	require.NoError(f.t, err)
	return tok, u
}

func TestRegisterLoginMe(t *testing.T) {
	f := newFixture(t)

	resp := f.request(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "ana@example.com", "password": "hunter2hunter2", "full_name": "Ana",
		// a role in the body must be ignored, not honored
		"role": "admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.User](t, resp)
	assert.Equal(t, core.RoleClient, created.Role)

	form := url.Values{"username": {"ana@example.com"}, "password": {"hunter2hunter2"}}
	lr, err := f.ts.Client().Post(f.ts.URL+"/api/auth/login", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, lr.StatusCode)
	login := decode[map[string]any](t, lr)
	assert.Equal(t, "bearer", login["token_type"])
	token, _ := login["access_token"].(string)
	require.NotEmpty(t, token)

	me := f.request(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	assert.Equal(t, "ana@example.com", decode[core.User](t, me).Email)
}

func TestRegisterDuplicateConflict(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"email": "dup@example.com", "password": "hunter2hunter2"}

	resp := f.request(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_identity", decode[apiError](t, resp).Error)
}

func TestLoginBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.seed("known@example.com", core.RoleClient)

	form := url.Values{"username": {"known@example.com"}, "password": {"wrong"}}
	resp, err := f.ts.Client().Post(f.ts.URL+"/api/auth/login", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", decode[apiError](t, resp).Error)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	f := newFixture(t)

	resp := f.request(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodGet, "/api/projects", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProjectOwnership(t *testing.T) {
	f := newFixture(t)
	adminTok, _ := f.seed("admin@example.com", core.RoleAdmin)
	aTok, a := f.seed("client-a@example.com", core.RoleClient)
	cTok, _ := f.seed("client-c@example.com", core.RoleClient)

	// clients cannot create projects at all
	resp := f.request(http.MethodPost, "/api/projects", aTok, map[string]any{
		"title": "nope", "client_id": a.ID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodPost, "/api/projects", adminTok, map[string]any{
		"title": "Site redesign", "client_id": a.ID, "description": "rebuild",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	project := decode[core.Project](t, resp)

	// owner reads it
	resp = f.request(http.MethodGet, "/api/projects/"+project.ID, aTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// another client does not
	resp = f.request(http.MethodGet, "/api/projects/"+project.ID, cTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// list scoping: C sees an empty list, not A's project
	resp = f.request(http.MethodGet, "/api/projects", cTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]core.Project](t, resp))
}

func TestInvoiceLockFlow(t *testing.T) {
	f := newFixture(t)
	adminTok, _ := f.seed("admin@example.com", core.RoleAdmin)
	aTok, a := f.seed("client-a@example.com", core.RoleClient)

	resp := f.request(http.MethodPost, "/api/projects", adminTok, map[string]any{
		"title": "Site redesign", "client_id": a.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	project := decode[core.Project](t, resp)

	resp = f.request(http.MethodPost, "/api/invoices", adminTok, map[string]any{
		"project_id": project.ID, "amount": 2500.0, "description": "deposit",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	invoice := decode[core.Invoice](t, resp)
	assert.Equal(t, core.InvoiceSent, invoice.Status)

	// locked from the owner's point of view
	resp = f.request(http.MethodGet, "/api/projects/"+project.ID, aTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[core.Project](t, resp).Locked)

	// clients cannot issue invoices
	resp = f.request(http.MethodPost, "/api/invoices", aTok, map[string]any{
		"project_id": project.ID, "amount": 1.0,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// the owner pays
	resp = f.request(http.MethodPut, "/api/invoices/"+invoice.ID+"/pay", aTok, map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodGet, "/api/projects/"+project.ID, aTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[core.Project](t, resp).Locked)

	// paying twice conflicts
	resp = f.request(http.MethodPut, "/api/invoices/"+invoice.ID+"/pay", adminTok, map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestInvoiceOwnership(t *testing.T) {
	f := newFixture(t)
	adminTok, _ := f.seed("admin@example.com", core.RoleAdmin)
	_, a := f.seed("client-a@example.com", core.RoleClient)
	cTok, _ := f.seed("client-c@example.com", core.RoleClient)

	resp := f.request(http.MethodPost, "/api/projects", adminTok, map[string]any{
		"title": "P", "client_id": a.ID,
	})
	project := decode[core.Project](t, resp)
	resp = f.request(http.MethodPost, "/api/invoices", adminTok, map[string]any{
		"project_id": project.ID, "amount": 100.0,
	})
	invoice := decode[core.Invoice](t, resp)

	// a stranger can neither read nor pay it
	resp = f.request(http.MethodGet, "/api/invoices/"+invoice.ID, cTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = f.request(http.MethodPut, "/api/invoices/"+invoice.ID+"/pay", cTok, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestOAuthCallbackErrorIsRedirect(t *testing.T) {
	f := newFixture(t)

	// error branch must win even with code/state absent
	resp, err := noRedirect().Get(f.ts.URL + "/api/auth/discord/callback?error=access_denied")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode, "must redirect, never 422")

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "frontend.test", loc.Host)
	assert.Equal(t, "access_denied", loc.Query().Get("error"))
	assert.Equal(t, "discord", loc.Query().Get("provider"))
}

func TestOAuthCallbackBadState(t *testing.T) {
	f := newFixture(t)

	resp, err := noRedirect().Get(f.ts.URL + "/api/auth/discord/callback?code=abc&state=never-issued")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	loc, _ := url.Parse(resp.Header.Get("Location"))
	assert.Equal(t, "invalid_state", loc.Query().Get("error"))
}

// registerFakeProvider wires a discord-shaped provider against a local fake.
func (f *fixture) registerFakeProvider(token, userinfo http.HandlerFunc) {
	mux := http.NewServeMux()
	if token != nil {
		mux.HandleFunc("/token", token)
	}
	if userinfo != nil {
		mux.HandleFunc("/userinfo", userinfo)
	}
	fake := httptest.NewServer(mux)
	f.t.Cleanup(fake.Close)

	p := oauth.NewDiscord(config.ProviderConfig{
		ClientID: "cid", ClientSecret: "sec", RedirectURI: f.ts.URL + "/api/auth/discord/callback",
	})
	p.TokenEndpoint = fake.URL + "/token"
	p.UserInfoEndpoint = fake.URL + "/userinfo"
	f.registry.Register(p)
}

func TestOAuthCallbackFailedExchangeIsRedirect(t *testing.T) {
	f := newFixture(t)
	f.registerFakeProvider(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid code", http.StatusBadRequest)
	}, nil)

	state, err := f.states.Issue("discord")
	require.NoError(t, err)

	resp, err := noRedirect().Get(f.ts.URL + "/api/auth/discord/callback?code=bad&state=" + state)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode, "must redirect, never a raw 5xx")
	loc, _ := url.Parse(resp.Header.Get("Location"))
	assert.NotEmpty(t, loc.Query().Get("error"))
}

func TestOAuthCallbackSuccess(t *testing.T) {
	f := newFixture(t)
	f.registerFakeProvider(
		func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at-1"})
		},
		func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "d-42", "email": "social@example.com", "global_name": "Social",
			})
		},
	)

	// login-initiate then callback, like a browser would
	lr := f.request(http.MethodGet, "/api/auth/discord/login", "", nil)
	require.Equal(t, http.StatusOK, lr.StatusCode)
	begin := decode[map[string]string](t, lr)
	require.NotEmpty(t, begin["state"])
	require.Contains(t, begin["authorization_url"], "state="+begin["state"])

	resp, err := noRedirect().Get(f.ts.URL + "/api/auth/discord/callback?code=good&state=" + begin["state"])
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/portal", loc.Path, "clients land on the portal")
	token := loc.Query().Get("token")
	require.NotEmpty(t, token)

	// the minted token works against the API
	me := f.request(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	assert.Equal(t, "social@example.com", decode[core.User](t, me).Email)

	// replaying the same state fails
	resp2, err := noRedirect().Get(f.ts.URL + "/api/auth/discord/callback?code=good&state=" + begin["state"])
	require.NoError(t, err)
	defer resp2.Body.Close()
	loc2, _ := url.Parse(resp2.Header.Get("Location"))
	assert.Equal(t, "invalid_state", loc2.Query().Get("error"))
}

func TestSocialLoginUnknownProvider(t *testing.T) {
	f := newFixture(t)
	resp := f.request(http.MethodGet, "/api/auth/nope/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestTestimonialModeration(t *testing.T) {
	f := newFixture(t)
	mgrTok, _ := f.seed("mgr@example.com", core.RoleClientManager)
	clientTok, _ := f.seed("client@example.com", core.RoleClient)

	resp := f.request(http.MethodPost, "/api/testimonials", "", map[string]any{
		"client_name": "Ana", "content": "great work", "rating": 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tm := decode[core.Testimonial](t, resp)

	// invisible until approved
	resp = f.request(http.MethodGet, "/api/testimonials", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]core.Testimonial](t, resp))

	// clients cannot moderate
	resp = f.request(http.MethodPut, "/api/testimonials/"+tm.ID+"/approve", clientTok, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// a client manager can
	resp = f.request(http.MethodPut, "/api/testimonials/"+tm.ID+"/approve", mgrTok, map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodGet, "/api/testimonials", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]core.Testimonial](t, resp), 1)
}

func TestAdminUserManagement(t *testing.T) {
	f := newFixture(t)
	adminTok, _ := f.seed("admin@example.com", core.RoleAdmin)
	superTok, _ := f.seed("root@example.com", core.RoleSuperAdmin)
	mgrTok, _ := f.seed("mgr@example.com", core.RoleClientManager)

	// client_manager has no user administration at all
	resp := f.request(http.MethodGet, "/api/admin/users", mgrTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// admin invites a manager
	resp = f.request(http.MethodPost, "/api/admin/users", adminTok, map[string]any{
		"email": "new-mgr@example.com", "password": "password-123", "role": "client_manager",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	invited := decode[core.User](t, resp)
	assert.Equal(t, core.RoleClientManager, invited.Role)

	// but not a super admin
	resp = f.request(http.MethodPost, "/api/admin/users", adminTok, map[string]any{
		"email": "boss@example.com", "password": "password-123", "role": "super_admin",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// role change is super_admin only
	resp = f.request(http.MethodPut, fmt.Sprintf("/api/admin/users/%s/role", invited.ID), adminTok,
		map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodPut, fmt.Sprintf("/api/admin/users/%s/role", invited.ID), superTok,
		map[string]any{"role": "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, core.RoleAdmin, decode[core.User](t, resp).Role)

	// delete is super_admin only
	resp = f.request(http.MethodDelete, "/api/admin/users/"+invited.ID, adminTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodDelete, "/api/admin/users/"+invited.ID, superTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (f *fixture) upload(token, projectID, tier, filename, content string) *http.Response {
	f.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(f.t, err)
	_, _ = fw.Write([]byte(content))
	if projectID != "" {
		_ = mw.WriteField("project_id", projectID)
	}
	if tier != "" {
		_ = mw.WriteField("tier", tier)
	}
	require.NoError(f.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/api/files/upload", &buf)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := f.ts.Client().Do(req)
	require.NoError(f.t, err)
	return resp
}

func TestFileTierLockGate(t *testing.T) {
	f := newFixture(t)
	adminTok, _ := f.seed("admin@example.com", core.RoleAdmin)
	aTok, a := f.seed("client-a@example.com", core.RoleClient)

	resp := f.request(http.MethodPost, "/api/projects", adminTok, map[string]any{
		"title": "P", "client_id": a.ID,
	})
	project := decode[core.Project](t, resp)

	up := f.upload(adminTok, project.ID, "paid", "final.zip", "deliverable bytes")
	require.Equal(t, http.StatusCreated, up.StatusCode)
	paidFile := decode[core.FileRecord](t, up)

	up = f.upload(adminTok, project.ID, "free", "brief.pdf", "brief bytes")
	require.Equal(t, http.StatusCreated, up.StatusCode)
	freeFile := decode[core.FileRecord](t, up)

	resp = f.request(http.MethodPost, "/api/invoices", adminTok, map[string]any{
		"project_id": project.ID, "amount": 2500.0,
	})
	invoice := decode[core.Invoice](t, resp)

	// while locked: paid tier withheld from the owner, free tier served
	resp = f.request(http.MethodGet, "/api/files/"+paidFile.ID, aTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = f.request(http.MethodGet, "/api/files/"+freeFile.ID, aTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// staff are not gated
	resp = f.request(http.MethodGet, "/api/files/"+paidFile.ID, adminTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// payment clears the gate
	resp = f.request(http.MethodPut, "/api/invoices/"+invoice.ID+"/pay", aTok, map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(http.MethodGet, "/api/files/"+paidFile.ID, aTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "deliverable bytes", string(body))
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := f.ts.Client().Get(f.ts.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}
