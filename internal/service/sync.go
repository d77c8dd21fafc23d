package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/repository"
	"golang.org/x/sync/semaphore"
)

const syncDateLayout = "2006-01-02"

// FixtureFeed is the external source of competition fixtures.
type FixtureFeed interface {
	FetchFixtures(ctx context.Context, competition string, from, to time.Time) (*domain.FeedBatch, error)
}

// SyncResult summarises one reconciliation pass.
type SyncResult struct {
	Competition string               `json:"competition"`
	DateFrom    string               `json:"date_from"`
	DateTo      string               `json:"date_to"`
	Fetched     int                  `json:"fetched"`
	Inserted    int                  `json:"inserted"`
	Updated     int                  `json:"updated"`
	Unchanged   int                  `json:"unchanged"`
	Unknown     int                  `json:"unknown"`
	Skipped     int                  `json:"skipped"`
	Warnings    []domain.FeedWarning `json:"warnings"`
}

type syncMode int

const (
	modeFull syncMode = iota
	modeResultsOnly
)

type applyOutcome int

const (
	outcomeUnchanged applyOutcome = iota
	outcomeInserted
	outcomeUpdated
	outcomeUnknown
)

// SyncService reconciles the external fixture feed into the matches table,
// keyed by external id. At most one pass runs at a time per service.
type SyncService struct {
	pool    repository.Pool
	matches repository.MatchRepository
	outbox  repository.OutboxRepository
	feed    FixtureFeed
	running *semaphore.Weighted
	now     func() time.Time
	logger  *slog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(
	pool repository.Pool,
	matches repository.MatchRepository,
	outbox repository.OutboxRepository,
	feed FixtureFeed,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		pool:    pool,
		matches: matches,
		outbox:  outbox,
		feed:    feed,
		running: semaphore.NewWeighted(1),
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the time source used to compute the date window.
func (s *SyncService) WithClock(now func() time.Time) *SyncService {
	s.now = now
	return s
}

// SyncWindow fetches [today-daysBack, today+daysAhead] and inserts unknown
// fixtures or rewrites known ones whose score changed. Matches missing from
// the feed are left alone.
func (s *SyncService) SyncWindow(ctx context.Context, competition string, daysBack, daysAhead int) (*SyncResult, error) {
	if daysBack < 0 || daysAhead < 0 {
		return nil, domain.ErrValidation("days_back and days_ahead must not be negative")
	}
	return s.run(ctx, competition, daysBack, daysAhead, modeFull)
}

// RefreshResultsOnly fetches [today-daysBack, today] and only updates scores
// of matches already imported. It never inserts.
func (s *SyncService) RefreshResultsOnly(ctx context.Context, competition string, daysBack int) (*SyncResult, error) {
	if daysBack < 0 {
		return nil, domain.ErrValidation("days_back must not be negative")
	}
	return s.run(ctx, competition, daysBack, 0, modeResultsOnly)
}

func (s *SyncService) run(ctx context.Context, competition string, daysBack, daysAhead int, mode syncMode) (*SyncResult, error) {
	if competition == "" {
		return nil, domain.ErrValidation("competition code is required")
	}
	if !s.running.TryAcquire(1) {
		return nil, domain.ErrSyncInProgress()
	}
	defer s.running.Release(1)

	start := s.now()
	utc := start.UTC()
	today := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -daysBack)
	to := today.AddDate(0, 0, daysAhead)

	result := &SyncResult{
		Competition: competition,
		DateFrom:    from.Format(syncDateLayout),
		DateTo:      to.Format(syncDateLayout),
		Warnings:    []domain.FeedWarning{},
	}

	batch, err := s.feed.FetchFixtures(ctx, competition, from, to)
	if err != nil {
		s.logger.Error("fixture fetch failed", "competition", competition, "error", err)
		var appErr *domain.AppError
		if !errors.As(err, &appErr) {
			err = domain.ErrExternalSource("fetch fixtures", err)
		}
		return nil, err
	}

	result.Fetched = len(batch.Fixtures) + len(batch.Warnings)
	result.Skipped = len(batch.Warnings)
	result.Warnings = append(result.Warnings, batch.Warnings...)
	for _, w := range batch.Warnings {
		s.logger.Warn("feed record skipped", "competition", competition, "index", w.Index, "reason", w.Reason)
	}

	for _, fx := range batch.Fixtures {
		outcome, err := s.applyWithRetry(ctx, fx, mode)
		if err != nil {
			s.logger.Error("fixture apply failed",
				"competition", competition, "external_id", fx.ExternalID, "error", err,
				"inserted", result.Inserted, "updated", result.Updated)
			return nil, err
		}
		switch outcome {
		case outcomeInserted:
			result.Inserted++
		case outcomeUpdated:
			result.Updated++
		case outcomeUnknown:
			result.Unknown++
		default:
			result.Unchanged++
		}
	}

	s.logger.Info("fixture sync finished",
		"competition", competition,
		"mode", modeName(mode),
		"from", result.DateFrom,
		"to", result.DateTo,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped,
		"duration", time.Since(start),
	)
	return result, nil
}

// applyWithRetry retries once when a concurrent insert of the same external
// id wins the race; the second attempt sees the row and updates it instead.
func (s *SyncService) applyWithRetry(ctx context.Context, fx domain.Fixture, mode syncMode) (applyOutcome, error) {
	outcome, err := s.apply(ctx, fx, mode)
	if err != nil && domain.IsCode(err, domain.CodeConflict) {
		s.logger.Warn("external id insert raced, retrying", "external_id", fx.ExternalID)
		outcome, err = s.apply(ctx, fx, mode)
	}
	return outcome, err
}

// apply reconciles one fixture in its own transaction so fixtures applied
// before a failure stay applied.
func (s *SyncService) apply(ctx context.Context, fx domain.Fixture, mode syncMode) (applyOutcome, error) {
	outcome := outcomeUnchanged
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		existing, err := s.matches.LockByExternalID(ctx, tx, fx.ExternalID)
		if err != nil {
			return internal("lock match by external id", err)
		}

		if existing == nil {
			if mode == modeResultsOnly {
				outcome = outcomeUnknown
				return nil
			}
			extID := fx.ExternalID
			m := &domain.Match{
				ID:         uuid.New(),
				HomeTeam:   fx.HomeTeam,
				AwayTeam:   fx.AwayTeam,
				MatchDate:  fx.MatchDate,
				ExternalID: &extID,
			}
			m.SetScore(fx.Score)
			if err := s.matches.Create(ctx, tx, m); err != nil {
				return internal("insert synced match", err)
			}
			if err := s.outbox.Insert(ctx, tx, domain.NewMatchSyncedEvent(m, true)); err != nil {
				return internal("insert outbox event", err)
			}
			outcome = outcomeInserted
			return nil
		}

		if !domain.ScoreNeedsWrite(existing, fx.Score) {
			return nil
		}

		if mode == modeResultsOnly {
			if err := s.matches.UpdateScore(ctx, tx, existing.ID, *fx.Score); err != nil {
				return internal("update synced score", err)
			}
			existing.SetScore(fx.Score)
		} else {
			existing.HomeTeam = fx.HomeTeam
			existing.AwayTeam = fx.AwayTeam
			existing.MatchDate = fx.MatchDate
			existing.SetScore(fx.Score)
			if err := s.matches.Update(ctx, tx, existing); err != nil {
				return internal("update synced match", err)
			}
		}

		if err := s.outbox.Insert(ctx, tx, domain.NewMatchSyncedEvent(existing, false)); err != nil {
			return internal("insert outbox event", err)
		}
		if err := s.outbox.Insert(ctx, tx, domain.NewMatchFinalizedEvent(existing)); err != nil {
			return internal("insert outbox event", err)
		}
		outcome = outcomeUpdated
		return nil
	})
	return outcome, err
}

func modeName(m syncMode) string {
	if m == modeResultsOnly {
		return "results_only"
	}
	return "full"
}
