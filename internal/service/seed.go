package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/repository"
)

type sampleMatch struct {
	home, away string
	dayOffset  int
	hour, min  int
	score      *domain.Score
}

func final(home, away int) *domain.Score { return &domain.Score{Home: home, Away: away} }

var sampleMatches = []sampleMatch{
	{"FC Barcelona", "Real Madrid", 7, 20, 0, nil},
	{"Manchester United", "Liverpool", 8, 15, 0, nil},
	{"Bayern Munich", "Borussia Dortmund", 9, 18, 0, nil},
	{"PSG", "Marseille", -5, 19, 0, final(2, 1)},
	{"Juventus", "AC Milan", -4, 20, 30, final(1, 1)},
	{"Chelsea", "Arsenal", -3, 16, 0, final(3, 0)},
	{"Atletico Madrid", "Sevilla", 10, 17, 0, nil},
	{"Inter Milan", "Napoli", -2, 18, 0, final(2, 2)},
	{"Manchester City", "Tottenham", -1, 15, 30, final(1, 0)},
	{"Roma", "Lazio", 11, 20, 0, nil},
	{"Ajax", "PSV Eindhoven", -3, 16, 0, final(0, 2)},
	{"Benfica", "Porto", 12, 19, 0, nil},
	{"AC Milan", "Inter Milan", 13, 20, 30, nil},
}

// SeedService prepares and wipes the store for the administrative CLI.
type SeedService struct {
	pool     repository.Pool
	accounts repository.AccountRepository
	matches  repository.MatchRepository
	auth     *AuthService
	now      func() time.Time
	logger   *slog.Logger
}

// NewSeedService creates a SeedService.
func NewSeedService(
	pool repository.Pool,
	accounts repository.AccountRepository,
	matches repository.MatchRepository,
	auth *AuthService,
	logger *slog.Logger,
) *SeedService {
	return &SeedService{
		pool:     pool,
		accounts: accounts,
		matches:  matches,
		auth:     auth,
		now:      time.Now,
		logger:   logger,
	}
}

// SeedResult reports what Seed created.
type SeedResult struct {
	AdminCreated   bool `json:"admin_created"`
	MatchesCreated int  `json:"matches_created"`
}

// Seed creates the administrator account when missing and, if the matches
// table is empty, a demo set of open and finished matches around today.
// Running it again is a no-op.
func (s *SeedService) Seed(ctx context.Context, adminUsername, adminPassword string) (*SeedResult, error) {
	res := &SeedResult{}

	existing, err := s.accounts.FindByUsername(ctx, s.pool, adminUsername)
	if err != nil {
		return nil, domain.ErrInternal("find admin", err)
	}
	if existing == nil {
		if _, err := s.auth.CreateAccount(ctx, adminUsername, adminPassword, domain.RoleAdmin); err != nil {
			return nil, err
		}
		res.AdminCreated = true
	}

	existingMatches, err := s.matches.List(ctx, s.pool, repository.MatchFilter{Limit: 1})
	if err != nil {
		return nil, domain.ErrInternal("count matches", err)
	}
	if len(existingMatches) > 0 {
		s.logger.Info("seed skipped matches, table not empty")
		return res, nil
	}

	now := s.now()
	err = inTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, sm := range sampleMatches {
			day := now.AddDate(0, 0, sm.dayOffset)
			m := &domain.Match{
				ID:        uuid.New(),
				HomeTeam:  sm.home,
				AwayTeam:  sm.away,
				MatchDate: domain.NewLocalTime(time.Date(day.Year(), day.Month(), day.Day(), sm.hour, sm.min, 0, 0, time.UTC)),
			}
			m.SetScore(sm.score)
			if err := s.matches.Create(ctx, tx, m); err != nil {
				return internal("seed match", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.MatchesCreated = len(sampleMatches)

	s.logger.Info("store seeded", "admin_created", res.AdminCreated, "matches", res.MatchesCreated)
	return res, nil
}

// ResetResult reports what Reset removed.
type ResetResult struct {
	Accounts int64 `json:"accounts"`
	Matches  int64 `json:"matches"`
}

// Reset deletes every account, match and prediction in one transaction.
// The event outbox is kept as history.
func (s *SeedService) Reset(ctx context.Context) (*ResetResult, error) {
	res := &ResetResult{}
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if res.Matches, err = s.matches.DeleteAll(ctx, tx); err != nil {
			return internal("delete matches", err)
		}
		if res.Accounts, err = s.accounts.DeleteAll(ctx, tx); err != nil {
			return internal("delete accounts", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("store reset", "accounts", res.Accounts, "matches", res.Matches)
	return res, nil
}
