// Package http is the transport layer: routing, middleware, handlers.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eternals-studio/portal/internal/auth"
	"github.com/eternals-studio/portal/internal/config"
	"github.com/eternals-studio/portal/internal/oauth"
	"github.com/eternals-studio/portal/internal/observability/logger"
	"github.com/eternals-studio/portal/internal/store/core"
	"github.com/eternals-studio/portal/internal/workflow"
)

type Server struct {
	auth      *auth.Service
	providers *oauth.Registry
	states    *oauth.StateStore
	reconcile *oauth.Reconciler
	flow      *workflow.Service
	store     core.Repository

	frontendURL string
	uploadDir   string
	corsOrigins []string

	log *zap.Logger
}

type Deps struct {
	Auth      *auth.Service
	Providers *oauth.Registry
	States    *oauth.StateStore
	Reconcile *oauth.Reconciler
	Flow      *workflow.Service
	Store     core.Repository
	Config    *config.Config
}

func NewServer(d Deps) *Server {
	return &Server{
		auth:        d.Auth,
		providers:   d.Providers,
		states:      d.States,
		reconcile:   d.Reconcile,
		flow:        d.Flow,
		store:       d.Store,
		frontendURL: d.Config.Frontend.BaseURL,
		uploadDir:   d.Config.Uploads.Dir,
		corsOrigins: d.Config.Server.CORSAllowedOrigins,
		log:         logger.Named("http"),
	}
}

// Handler assembles the middleware chain around the router. metricsHandler
// may be nil (tests); then /metrics is not mounted.
func (s *Server) Handler(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", s.routes)

	var h http.Handler = r
	h = WithMetrics(h)
	h = WithLogging(h)
	h = WithCORS(h, s.corsOrigins)
	h = WithRecover(h)
	h = WithRequestID(h)
	return h
}
