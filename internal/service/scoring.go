package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/domain"
	"github.com/scorecast/platform/internal/policy"
	"github.com/scorecast/platform/internal/repository"
)

// ScoringService computes prediction accuracy over finalized matches.
type ScoringService struct {
	db          repository.DBTX
	predictions repository.PredictionRepository
}

// NewScoringService creates a ScoringService.
func NewScoringService(db repository.DBTX, predictions repository.PredictionRepository) *ScoringService {
	return &ScoringService{db: db, predictions: predictions}
}

// Stats is an account's accuracy plus the finalized predictions behind it.
type Stats struct {
	domain.Accuracy
	Predictions []domain.PredictionWithMatch `json:"predictions"`
}

// ComputeAccuracy counts exact-scoreline hits among the account's predictions
// on finalized matches. An unknown account yields zero totals.
func (s *ScoringService) ComputeAccuracy(ctx context.Context, accountID uuid.UUID) (domain.Accuracy, error) {
	scored, err := s.predictions.ListScored(ctx, s.db, accountID)
	if err != nil {
		return domain.Accuracy{}, domain.ErrInternal("list scored predictions", err)
	}
	return domain.ComputeAccuracy(scored), nil
}

// Stats returns accuracy for accountID. Users may only read their own stats;
// admins may read anyone's.
func (s *ScoringService) Stats(ctx context.Context, caller domain.Caller, accountID uuid.UUID) (*Stats, error) {
	if !caller.IsAdmin() {
		if err := policy.RequireOwner(caller, accountID); err != nil {
			return nil, err
		}
	}

	acc, err := s.ComputeAccuracy(ctx, accountID)
	if err != nil {
		return nil, err
	}

	all, err := s.predictions.ListByAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, domain.ErrInternal("list predictions", err)
	}
	finished := make([]domain.PredictionWithMatch, 0, acc.Total)
	for _, p := range all {
		if p.Status != domain.StatusPending {
			finished = append(finished, p)
		}
	}

	return &Stats{Accuracy: acc, Predictions: finished}, nil
}
