package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ruedaya/storefront/internal/adapter/backend"
	edgehttp "github.com/ruedaya/storefront/internal/adapter/http"
	"github.com/ruedaya/storefront/internal/adapter/metrics"
	"github.com/ruedaya/storefront/internal/adapter/natskv"
	"github.com/ruedaya/storefront/internal/adapter/otel"
	"github.com/ruedaya/storefront/internal/adapter/ristretto"
	"github.com/ruedaya/storefront/internal/adapter/tiered"
	"github.com/ruedaya/storefront/internal/config"
	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/middleware"
	backendport "github.com/ruedaya/storefront/internal/port/backend"
	"github.com/ruedaya/storefront/internal/port/cache"
	"github.com/ruedaya/storefront/internal/resilience"
	"github.com/ruedaya/storefront/internal/service"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront edge server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			closer := setupLogging(cfg.Logging)
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"tenancy_enabled", cfg.Tenancy.Enabled,
		"root_domain", cfg.Tenancy.RootDomain,
		"backend", cfg.Backend.URL,
		"renderer", cfg.Renderer.URL,
	)

	// --- Infrastructure ---

	shutdownTracer, err := otel.InitTracer(ctx, cfg.Logging.Service, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}()

	local, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("dealer cache: %w", err)
	}
	defer local.Close()

	var dealerCache cache.Cache = local
	if cfg.Cache.SharedURL != "" {
		shared, err := natskv.Open(ctx, cfg.Cache.SharedURL, cfg.Cache.SharedBucket, cfg.Cache.DealerTTL)
		if err != nil {
			slog.Warn("shared dealer cache unavailable, using in-process cache only", "error", err)
		} else {
			defer shared.Close()
			dealerCache = tiered.New(local, shared, cfg.Cache.DealerTTL)
		}
	}

	m := metrics.NewMetrics()
	m.WatchLocalCache(local)

	client := backend.NewClient(cfg.Backend)
	var breaker *resilience.Breaker
	if client.Configured() {
		breaker = resilience.NewBreaker("backend", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
		client.SetBreaker(breaker)
	} else {
		slog.Warn("backend url not set, account sync and dealer lookups will degrade")
	}

	// --- Services ---

	var syncer backendport.AccountSyncer
	if cfg.Backend.SyncEnabled && client.Configured() {
		syncer = client
	}
	sessions := service.NewSessionService(cfg.Session)
	authSvc := service.NewAuthService(syncer, sessions)
	authSvc.SetRecorder(m)
	dealerSvc := service.NewDealerService(client, dealerCache, cfg.Cache.DealerTTL)
	dealerSvc.SetRecorder(m)

	resolver := tenant.NewResolver(cfg.Tenancy)
	slog.Info("tenant resolver ready", "rules", resolver.Rules())

	// --- HTTP ---

	renderer, err := edgehttp.NewRenderer(cfg.Renderer.URL)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	handlers := &edgehttp.Handlers{
		Auth:          authSvc,
		Sessions:      sessions,
		Dealers:       dealerSvc,
		Resolver:      resolver,
		Breaker:       breaker,
		Renderer:      renderer,
		Metrics:       m.Handler(),
		CookieName:    cfg.Session.CookieName,
		SecureCookies: cfg.Session.Secure,
		Version:       version,
	}
	limiter := middleware.NewRateLimiter(cfg.Server.LoginRate, cfg.Server.LoginBurst)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(edgehttp.Logger(m))
	r.Use(chimw.Recoverer)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(edgehttp.SecurityHeaders)
	r.Use(edgehttp.CORS(cfg.Server.CORSOrigin))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Tenant(resolver, m))

	edgehttp.MountRoutes(r, handlers, limiter)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx, time.Minute, 10*time.Minute)
	})
	g.Go(func() error {
		// Graceful shutdown
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
