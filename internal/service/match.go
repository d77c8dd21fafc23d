package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/policy"
	"github.com/scorecast/platform/internal/repository"
)

// MatchService handles administrator match management.
type MatchService struct {
	pool    repository.Pool
	matches repository.MatchRepository
	outbox  repository.OutboxRepository
	logger  *slog.Logger
}

// NewMatchService creates a MatchService.
func NewMatchService(pool repository.Pool, matches repository.MatchRepository, outbox repository.OutboxRepository, logger *slog.Logger) *MatchService {
	return &MatchService{pool: pool, matches: matches, outbox: outbox, logger: logger}
}

// CreateMatch enters an unfinalized match by hand. Such matches carry no
// external id.
func (s *MatchService) CreateMatch(ctx context.Context, caller domain.Caller, input domain.NewMatchInput) (*domain.Match, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	home := domain.NormalizeTeamName(input.HomeTeam)
	away := domain.NormalizeTeamName(input.AwayTeam)
	if err := domain.ValidateTeams(home, away); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	kickoff, err := domain.ParseLocalTime(input.MatchDate)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	m := &domain.Match{
		ID:        uuid.New(),
		HomeTeam:  home,
		AwayTeam:  away,
		MatchDate: kickoff,
	}

	err = inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.matches.Create(ctx, tx, m); err != nil {
			return internal("create match", err)
		}
		if err := s.outbox.Insert(ctx, tx, domain.NewMatchCreatedEvent(m)); err != nil {
			return internal("insert outbox event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match created", "match_id", m.ID, "home", m.HomeTeam, "away", m.AwayTeam, "kickoff", m.MatchDate)
	return m, nil
}

// SetResult finalizes a match, or corrects the score of one already final.
// The exclusive row lock orders it against in-flight prediction writes.
func (s *MatchService) SetResult(ctx context.Context, caller domain.Caller, matchID uuid.UUID, score domain.Score) (*domain.Match, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := domain.ValidateGoals(score.Home, score.Away); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	var (
		match   *domain.Match
		changed bool
	)
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		match, err = s.matches.LockForUpdate(ctx, tx, matchID)
		if err != nil {
			return internal("lock match", err)
		}
		if match == nil {
			return domain.ErrNotFound("match", matchID.String())
		}
		if current, ok := match.FinalScore(); ok && current == score {
			return nil
		}

		if err := s.matches.UpdateScore(ctx, tx, match.ID, score); err != nil {
			return internal("update score", err)
		}
		match.SetScore(&score)
		changed = true

		if err := s.outbox.Insert(ctx, tx, domain.NewMatchFinalizedEvent(match)); err != nil {
			return internal("insert outbox event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("match result set", "match_id", match.ID, "score", score.String())
	}
	return match, nil
}

// GetMatch returns one match.
func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	m, err := s.matches.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find match", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound("match", id.String())
	}
	return m, nil
}

// ListMatches returns matches in kickoff order.
func (s *MatchService) ListMatches(ctx context.Context, filter repository.MatchFilter) ([]domain.Match, error) {
	list, err := s.matches.List(ctx, s.pool, filter)
	if err != nil {
		return nil, domain.ErrInternal("list matches", err)
	}
	if list == nil {
		list = []domain.Match{}
	}
	return list, nil
}
