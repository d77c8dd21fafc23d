package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/policy"
	"github.com/scorecast/platform/internal/repository"
)

// PredictionService owns the prediction lifecycle: submissions and deletions
// are only accepted while the match has no final score.
type PredictionService struct {
	pool        repository.Pool
	matches     repository.MatchRepository
	predictions repository.PredictionRepository
	outbox      repository.OutboxRepository
	logger      *slog.Logger
}

// NewPredictionService creates a PredictionService.
func NewPredictionService(
	pool repository.Pool,
	matches repository.MatchRepository,
	predictions repository.PredictionRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *PredictionService {
	return &PredictionService{
		pool:        pool,
		matches:     matches,
		predictions: predictions,
		outbox:      outbox,
		logger:      logger,
	}
}

// Submit creates or overwrites the caller's prediction for a match.
//
// The match row is read under FOR SHARE in the same transaction as the write,
// so a concurrent result entry (which needs FOR UPDATE) either commits before
// the check and is seen, or waits until this submission is durable.
func (s *PredictionService) Submit(ctx context.Context, caller domain.Caller, input domain.SubmitPredictionInput) (*domain.Prediction, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if err := domain.ValidateGoals(input.PredictedHome, input.PredictedAway); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if input.MatchID == uuid.Nil {
		return nil, domain.ErrValidation("match_id is required")
	}

	var (
		result  *domain.Prediction
		created bool
	)
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		match, err := s.matches.LockForShare(ctx, tx, input.MatchID)
		if err != nil {
			return internal("lock match", err)
		}
		if match == nil {
			return domain.ErrNotFound("match", input.MatchID.String())
		}
		if match.Finalized() {
			return domain.ErrMatchFinalized(match.ID.String())
		}

		result, created, err = s.predictions.Upsert(ctx, tx, &domain.Prediction{
			ID:            uuid.New(),
			AccountID:     caller.AccountID,
			MatchID:       match.ID,
			PredictedHome: input.PredictedHome,
			PredictedAway: input.PredictedAway,
		})
		if err != nil {
			return internal("upsert prediction", err)
		}

		if err := s.outbox.Insert(ctx, tx, domain.NewPredictionSubmittedEvent(result)); err != nil {
			return internal("insert outbox event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("prediction submitted",
		"prediction_id", result.ID,
		"account_id", caller.AccountID,
		"match_id", result.MatchID,
		"created", created,
	)
	return result, nil
}

// Delete withdraws one of the caller's predictions. Predictions owned by
// other accounts are reported as not found.
func (s *PredictionService) Delete(ctx context.Context, caller domain.Caller, predictionID uuid.UUID) error {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return err
	}

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		p, err := s.predictions.FindByID(ctx, tx, predictionID)
		if err != nil {
			return internal("find prediction", err)
		}
		if p == nil || p.AccountID != caller.AccountID {
			return domain.ErrNotFound("prediction", predictionID.String())
		}

		match, err := s.matches.LockForShare(ctx, tx, p.MatchID)
		if err != nil {
			return internal("lock match", err)
		}
		if match == nil {
			return domain.ErrNotFound("match", p.MatchID.String())
		}
		if match.Finalized() {
			return domain.ErrMatchFinalized(match.ID.String())
		}

		if err := s.predictions.Delete(ctx, tx, p.ID); err != nil {
			return internal("delete prediction", err)
		}
		if err := s.outbox.Insert(ctx, tx, domain.NewPredictionDeletedEvent(p)); err != nil {
			return internal("insert outbox event", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("prediction deleted", "prediction_id", predictionID, "account_id", caller.AccountID)
	return nil
}

// MyPredictions lists the caller's predictions with their match and status.
func (s *PredictionService) MyPredictions(ctx context.Context, caller domain.Caller) ([]domain.PredictionWithMatch, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	list, err := s.predictions.ListByAccount(ctx, s.pool, caller.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("list predictions", err)
	}
	if list == nil {
		list = []domain.PredictionWithMatch{}
	}
	return list, nil
}

// MatchBoard lists matches with the caller's own prediction attached, open
// matches first and each group in kickoff order.
func (s *PredictionService) MatchBoard(ctx context.Context, caller domain.Caller, filter repository.MatchFilter) ([]domain.MatchWithPrediction, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	matches, err := s.matches.List(ctx, s.pool, filter)
	if err != nil {
		return nil, domain.ErrInternal("list matches", err)
	}
	mine, err := s.predictions.ListByAccount(ctx, s.pool, caller.AccountID)
	if err != nil {
		return nil, domain.ErrInternal("list predictions", err)
	}

	byMatch := make(map[uuid.UUID]domain.Prediction, len(mine))
	for _, p := range mine {
		byMatch[p.MatchID] = p.Prediction
	}

	board := make([]domain.MatchWithPrediction, 0, len(matches))
	for _, m := range matches {
		row := domain.MatchWithPrediction{Match: m}
		if p, ok := byMatch[m.ID]; ok {
			p := p
			row.Prediction = &p
		}
		board = append(board, row)
	}

	sort.SliceStable(board, func(i, j int) bool {
		fi, fj := board[i].Finalized(), board[j].Finalized()
		if fi != fj {
			return !fi
		}
		return board[i].MatchDate.Before(board[j].MatchDate.Time)
	})
	return board, nil
}
