// Command store-admin prepares and inspects the prediction store.
//
//	store-admin migrate | status | seed | reset -yes
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
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Error("store-admin failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 {
		return fmt.Errorf("usage: store-admin migrate|status|seed|reset -yes")
	}
	cmd, rest := args[0], args[1:]

	if err := infra.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	switch cmd {
	case "migrate":
		return infra.RunMigrations(cfg.DSN(), logger)

	case "status":
		st, err := infra.CurrentMigration(cfg.DSN())
		if err != nil {
			return err
		}
		return printJSON(st)

	case "seed":
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		services, closeFn, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := services.Seed.Seed(ctx, cfg.SeedAdminUsername, cfg.SeedAdminPassword)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ContinueOnError)
		yes := fs.Bool("yes", false, "confirm deleting every account, match and prediction")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if !*yes {
			return fmt.Errorf("reset deletes all data; pass -yes to confirm")
		}
		services, closeFn, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := services.Seed.Reset(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func connect(ctx context.Context, cfg *infra.Config, logger *slog.Logger) (*app.Services, func(), error) {
	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	services := app.NewServices(app.ServiceDeps{
		Pool:   pool,
		JWTMgr: auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry),
		Hasher: auth.NewBcryptHasher(),
		Feed:   app.NewFeed(cfg, logger),
		Logger: logger,
	})
	return services, pool.Close, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
