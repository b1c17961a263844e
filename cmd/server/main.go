// Package main is the entrypoint for the riskdocs API server.
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

	"github.com/riskdocs/riskdocs/internal/api"
	"github.com/riskdocs/riskdocs/internal/api/handler"
	mw "github.com/riskdocs/riskdocs/internal/api/middleware"
	"github.com/riskdocs/riskdocs/internal/cache"
	"github.com/riskdocs/riskdocs/internal/config"
	"github.com/riskdocs/riskdocs/internal/directory"
	"github.com/riskdocs/riskdocs/internal/extract/backends"
	"github.com/riskdocs/riskdocs/internal/jobs"
	"github.com/riskdocs/riskdocs/internal/store"
	"github.com/riskdocs/riskdocs/internal/tenant"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "extractor", cfg.Extractor.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the directory (control-plane) database
	pool, err := store.Connect(ctx, cfg.Directory)
	if err != nil {
		return fmt.Errorf("connect directory database: %w", err)
	}
	defer pool.Close()
	slog.Info("directory database connected")

	// 3. Run directory migrations. Tenant schemas are provisioned out of
	// band when a tenant is onboarded.
	if err := store.RunMigrations(cfg.Directory.URL, "migrations/directory"); err != nil {
		return fmt.Errorf("run directory migrations: %w", err)
	}
	slog.Info("directory migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create the extractor
	extractor, err := backends.NewExtractor(cfg.Extractor)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}
	slog.Info("extractor initialized", "provider", extractor.Name())

	// 6. Tenant registry and service factory
	registry := tenant.NewRegistry()
	defer registry.DisconnectAll()
	factory := tenant.NewFactory(registry)

	// 7. Job manager over the extraction runner
	runner := jobs.NewRunner(factory, extractor)
	manager := jobs.NewManager(runner, redisCache, cfg.Jobs)
	defer manager.Close()

	// 8. Build router with dependencies
	dirStore := directory.NewPostgresStore(pool)
	auth := mw.NewAuth(dirStore)
	rateLimit := mw.NewRateLimit(redisCache, 60)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		Health:          handler.NewHealthHandler(dirStore, redisCache),
		PollJob:         handler.NewPollJobHandler(manager, redisCache),
		RiskAssessments: handler.NewRiskAssessments(factory, manager),
		JHA:             handler.NewJHA(factory, manager),
		Incidents:       handler.NewIncidents(factory, manager),
		Keys:            handler.NewKeys(dirStore),
		Tenants:         handler.NewTenants(dirStore),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown: stop intake first, then drain jobs and close
	// tenant pools via the deferred Close/DisconnectAll.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
