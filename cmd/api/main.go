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

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/mealplanner/docs/swagger"
	"github.com/ghuser/mealplanner/pkg/app"
	"github.com/ghuser/mealplanner/pkg/auth"
	"github.com/ghuser/mealplanner/pkg/config"
	"github.com/ghuser/mealplanner/pkg/httpx"
	"github.com/ghuser/mealplanner/pkg/logger"
	"github.com/ghuser/mealplanner/pkg/telemetry"
	shoppingApi "github.com/ghuser/mealplanner/services/shopping/application/api"
)

// @title					Meal Planner API
// @version				1.0
// @description			Meal planning backend: generates shopping lists from planned meals.
// @contact.name			API Support
// @contact.email			support@mealplanner.dev
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.WithoutCancel(ctx)) //nolint:errcheck

	// Crash reporting is optional.
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	a, err := app.Connect(ctx, cfg, log, app.Options{Role: "api", Outbox: true})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	a.SessionStore = auth.NewSessionStore(
		a.Redis.Client(),
		[]byte(cfg.SessionAuthKey),
		[]byte(cfg.SessionEncryptionKey),
		cfg.IsProduction(),
	)

	srv := httpx.NewServer(cfg.HTTPAddr, newRouter(cfg, a, metricsHandler))
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newRouter(cfg *config.Config, a *app.Application, metrics http.Handler) http.Handler {
	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.IsDevelopment(),
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RequestsPerMinute:  cfg.HTTPRequestsPerMinute,
			MaxBodyBytes:       cfg.HTTPMaxBodyBytes,
			HandlerTimeout:     cfg.HTTPHandlerTimeout,
		},
		logger.Recovery(a.Logger),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
		logger.Middleware(a.Logger),
	)

	checks := httpx.HealthChecks{
		"database":  a.Db,
		"redis":     a.Redis,
		"event_bus": a.EventBus,
	}
	if a.TemporalClient != nil {
		checks["temporal"] = a.TemporalClient
	}
	r.Get("/health", httpx.HealthHandler(checks))
	r.Handle("/metrics", metrics)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(a.SessionStore, a.Logger))
		shoppingApi.ShoppingRoutes(r, a)
	})
	return r
}
