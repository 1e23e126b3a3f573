package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eternals-studio/portal/internal/auth"
	"github.com/eternals-studio/portal/internal/cache"
	cachemem "github.com/eternals-studio/portal/internal/cache/memory"
	cacheredis "github.com/eternals-studio/portal/internal/cache/redis"
	"github.com/eternals-studio/portal/internal/config"
	httpapi "github.com/eternals-studio/portal/internal/http"
	"github.com/eternals-studio/portal/internal/jwt"
	"github.com/eternals-studio/portal/internal/oauth"
	"github.com/eternals-studio/portal/internal/observability/logger"
	"github.com/eternals-studio/portal/internal/store/core"
	storemem "github.com/eternals-studio/portal/internal/store/memory"
	storemongo "github.com/eternals-studio/portal/internal/store/mongo"
	"github.com/eternals-studio/portal/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "portal",
	})
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(shutdownCtx)
	}()

	c := buildCache(cfg)

	issuer := jwt.NewIssuer(cfg.JWT.Secret, cfg.AccessTTL())
	authSvc := auth.NewService(store, issuer)
	registry := oauth.NewRegistry(cfg)
	states := oauth.NewStateStore(c, cfg.OAuth.StateTTL)
	reconciler := oauth.NewReconciler(store)
	flow := workflow.NewService(store)

	metricsHandler, err := httpapi.RegisterMetrics(nil)
	if err != nil {
		log.Fatal("metrics init failed", zap.Error(err))
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Auth:      authSvc,
		Providers: registry,
		States:    states,
		Reconcile: reconciler,
		Flow:      flow,
		Store:     store,
		Config:    cfg,
	})

	hs := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.Strings("oauth_providers", registry.Names()))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return hs.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (core.Repository, error) {
	switch cfg.Storage.Driver {
	case "mongo":
		return storemongo.New(ctx, cfg.Storage.Mongo.URL, cfg.Storage.Mongo.Database)
	default:
		return storemem.New(), nil
	}
}

func buildCache(cfg *config.Config) cache.Cache {
	if cfg.Cache.Kind == "redis" && cfg.Cache.Redis.Addr != "" {
		return cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB)
	}
	return cachemem.New(cfg.OAuth.StateTTL)
}
