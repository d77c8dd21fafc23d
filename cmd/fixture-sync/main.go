// Command fixture-sync runs one fixture reconciliation pass against the feed.
//
//	fixture-sync [-competition PL] [-days-back N] [-days-ahead N] sync|refresh
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scorecast/platform/internal/app"
	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/infra"
	"github.com/scorecast/platform/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("fixture sync failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := infra.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs := flag.NewFlagSet("fixture-sync", flag.ContinueOnError)
	competition := fs.String("competition", cfg.CompetitionCode, "competition code")
	daysBack := fs.Int("days-back", -1, "days before today to fetch (default from config)")
	daysAhead := fs.Int("days-ahead", cfg.SyncDaysAhead, "days after today to fetch (sync only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fixture-sync [flags] sync|refresh")
	}
	mode := fs.Arg(0)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	services := app.NewServices(app.ServiceDeps{
		Pool:   pool,
		JWTMgr: auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry),
		Hasher: auth.NewBcryptHasher(),
		Feed:   app.NewFeed(cfg, logger),
		Logger: logger,
	})

	var res *service.SyncResult
	switch mode {
	case "sync":
		back := cfg.SyncDaysBack
		if *daysBack >= 0 {
			back = *daysBack
		}
		res, err = services.Sync.SyncWindow(ctx, *competition, back, *daysAhead)
	case "refresh":
		back := cfg.RefreshDaysBack
		if *daysBack >= 0 {
			back = *daysBack
		}
		res, err = services.Sync.RefreshResultsOnly(ctx, *competition, back)
	default:
		return fmt.Errorf("unknown mode %q: want sync or refresh", mode)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
