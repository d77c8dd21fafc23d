package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/scorecast/platform/internal/guard"
	"github.com/scorecast/platform/internal/infra"
	"github.com/scorecast/platform/internal/provider"
)

// NewFeed builds the football-data.org client with a circuit breaker that
// opens after 5 consecutive failures and half-opens after a minute.
func NewFeed(cfg *infra.Config, logger *slog.Logger) *provider.FootballDataClient {
	breaker := guard.NewCircuitBreaker(5, time.Minute)
	return provider.NewFootballDataClient(cfg.FootballDataBaseURL, cfg.FootballDataAPIKey, cfg.FeedTimeout, breaker, logger)
}

// SyncJobs returns the periodic refresh and full-window sync jobs. Both share
// svc's overlap guard, so a slow run makes the other trigger fail fast.
func SyncJobs(svc *Services, cfg *infra.Config) []infra.Job {
	return []infra.Job{
		{
			Name:     "refresh-results",
			Interval: cfg.RefreshSchedule,
			Run: func(ctx context.Context) error {
				_, err := svc.Sync.RefreshResultsOnly(ctx, cfg.CompetitionCode, cfg.RefreshDaysBack)
				return err
			},
		},
		{
			Name:     "sync-window",
			Interval: cfg.SyncSchedule,
			Run: func(ctx context.Context) error {
				_, err := svc.Sync.SyncWindow(ctx, cfg.CompetitionCode, cfg.SyncDaysBack, cfg.SyncDaysAhead)
				return err
			},
		},
	}
}
