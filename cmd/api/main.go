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

	"github.com/scorecast/platform/internal/app"
	"github.com/scorecast/platform/internal/auth"
	adminhandler "github.com/scorecast/platform/internal/handler/admin"
	"github.com/scorecast/platform/internal/infra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := infra.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	services := app.NewServices(app.ServiceDeps{
		Pool:   pool,
		JWTMgr: jwtMgr,
		Hasher: auth.NewBcryptHasher(),
		Feed:   app.NewFeed(cfg, logger),
		Logger: logger,
	})

	router := app.NewRouter(app.RouterDeps{
		DB:                 pool,
		JWTMgr:             jwtMgr,
		Services:           services,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRateLimit:     cfg.LoginRateLimit,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		Sync: adminhandler.SyncDefaults{
			Competition:     cfg.CompetitionCode,
			DaysBack:        cfg.SyncDaysBack,
			DaysAhead:       cfg.SyncDaysAhead,
			RefreshDaysBack: cfg.RefreshDaysBack,
		},
	})

	if cfg.SchedulerEnabled {
		sched, err := infra.NewScheduler(ctx, logger, app.SyncJobs(services, cfg)...)
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		sched.Start()
		defer func() {
			if err := sched.Shutdown(); err != nil {
				logger.Error("scheduler shutdown", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.FeedTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "scheduler", cfg.SchedulerEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
