package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
)

type predictionRepo struct{}

// NewPredictionRepository returns a pgx-backed PredictionRepository.
func NewPredictionRepository() PredictionRepository {
	return &predictionRepo{}
}

const predictionColumns = `id, account_id, match_id, predicted_home, predicted_away, created_at, updated_at`

// Upsert relies on the (account_id, match_id) unique constraint; xmax = 0
// holds only for a freshly inserted tuple.
func (r *predictionRepo) Upsert(ctx context.Context, db DBTX, p *domain.Prediction) (*domain.Prediction, bool, error) {
	var out domain.Prediction
	var created bool
	err := db.QueryRow(ctx, `
		INSERT INTO predictions (id, account_id, match_id, predicted_home, predicted_away)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, match_id) DO UPDATE
		SET predicted_home = EXCLUDED.predicted_home,
		    predicted_away = EXCLUDED.predicted_away,
		    updated_at = now()
		RETURNING `+predictionColumns+`, (xmax = 0)`,
		p.ID, p.AccountID, p.MatchID, p.PredictedHome, p.PredictedAway,
	).Scan(&out.ID, &out.AccountID, &out.MatchID, &out.PredictedHome, &out.PredictedAway,
		&out.CreatedAt, &out.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("upsert prediction: %w", err)
	}
	return &out, created, nil
}

func (r *predictionRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Prediction, error) {
	var p domain.Prediction
	err := db.QueryRow(ctx, `SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id).
		Scan(&p.ID, &p.AccountID, &p.MatchID, &p.PredictedHome, &p.PredictedAway, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan prediction: %w", err)
	}
	return &p, nil
}

func (r *predictionRepo) Delete(ctx context.Context, db DBTX, id uuid.UUID) error {
	tag, err := db.Exec(ctx, `DELETE FROM predictions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("prediction", id.String())
	}
	return nil
}

func (r *predictionRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.PredictionWithMatch, error) {
	rows, err := db.Query(ctx, `
		SELECT p.id, p.account_id, p.match_id, p.predicted_home, p.predicted_away, p.created_at, p.updated_at,
		       m.home_team, m.away_team, m.match_date, m.home_score, m.away_score
		FROM predictions p
		JOIN matches m ON m.id = p.match_id
		WHERE p.account_id = $1
		ORDER BY m.match_date DESC, p.id ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.PredictionWithMatch
	for rows.Next() {
		var pm domain.PredictionWithMatch
		var kickoff time.Time
		err := rows.Scan(&pm.ID, &pm.AccountID, &pm.MatchID, &pm.PredictedHome, &pm.PredictedAway,
			&pm.CreatedAt, &pm.UpdatedAt, &pm.HomeTeam, &pm.AwayTeam, &kickoff, &pm.HomeScore, &pm.AwayScore)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		pm.MatchDate = domain.NewLocalTime(kickoff)
		pm.ResolveStatus()
		out = append(out, pm)
	}
	return out, rows.Err()
}

func (r *predictionRepo) ListScored(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.ScoredPrediction, error) {
	rows, err := db.Query(ctx, `
		SELECT p.predicted_home, p.predicted_away, m.home_score, m.away_score
		FROM predictions p
		JOIN matches m ON m.id = p.match_id
		WHERE p.account_id = $1
		  AND m.home_score IS NOT NULL
		  AND m.away_score IS NOT NULL`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list scored predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoredPrediction
	for rows.Next() {
		var sp domain.ScoredPrediction
		if err := rows.Scan(&sp.Guess.Home, &sp.Guess.Away, &sp.Final.Home, &sp.Final.Away); err != nil {
			return nil, fmt.Errorf("scan scored prediction: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}
