package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scorecast/platform/internal/domain"
)

type matchRepo struct{}

// NewMatchRepository returns a pgx-backed MatchRepository.
func NewMatchRepository() MatchRepository {
	return &matchRepo{}
}

const matchColumns = `id, home_team, away_team, match_date, home_score, away_score, external_id, created_at`

func (r *matchRepo) Create(ctx context.Context, db DBTX, m *domain.Match) error {
	err := db.QueryRow(ctx, `
		INSERT INTO matches (id, home_team, away_team, match_date, home_score, away_score, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		m.ID, m.HomeTeam, m.AwayTeam, m.MatchDate.Time, m.HomeScore, m.AwayScore, m.ExternalID,
	).Scan(&m.CreatedAt)
	if err != nil {
		return mapUniqueViolation(fmt.Errorf("insert match: %w", err), "external id already imported")
	}
	return nil
}

func (r *matchRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Match, error) {
	row := db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	return scanMatch(row)
}

func (r *matchRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Match, error) {
	row := tx.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, id)
	return scanMatch(row)
}

func (r *matchRepo) LockForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Match, error) {
	row := tx.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR SHARE`, id)
	return scanMatch(row)
}

func (r *matchRepo) LockByExternalID(ctx context.Context, tx pgx.Tx, externalID int64) (*domain.Match, error) {
	row := tx.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE external_id = $1 FOR UPDATE`, externalID)
	return scanMatch(row)
}

func (r *matchRepo) Update(ctx context.Context, db DBTX, m *domain.Match) error {
	tag, err := db.Exec(ctx, `
		UPDATE matches
		SET home_team = $2, away_team = $3, match_date = $4, home_score = $5, away_score = $6
		WHERE id = $1`,
		m.ID, m.HomeTeam, m.AwayTeam, m.MatchDate.Time, m.HomeScore, m.AwayScore)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("match", m.ID.String())
	}
	return nil
}

func (r *matchRepo) UpdateScore(ctx context.Context, db DBTX, id uuid.UUID, score domain.Score) error {
	tag, err := db.Exec(ctx, `UPDATE matches SET home_score = $2, away_score = $3 WHERE id = $1`,
		id, score.Home, score.Away)
	if err != nil {
		return fmt.Errorf("update match score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("match", id.String())
	}
	return nil
}

func (r *matchRepo) List(ctx context.Context, db DBTX, f MatchFilter) ([]domain.Match, error) {
	var where []string
	var args []interface{}
	argIdx := 1

	if f.Finished != nil {
		if *f.Finished {
			where = append(where, "home_score IS NOT NULL")
		} else {
			where = append(where, "home_score IS NULL")
		}
	}
	if f.From != nil {
		where = append(where, fmt.Sprintf("match_date >= $%d", argIdx))
		args = append(args, f.From.Time)
		argIdx++
	}
	if f.To != nil {
		where = append(where, fmt.Sprintf("match_date <= $%d", argIdx))
		args = append(args, f.To.Time)
		argIdx++
	}

	query := `SELECT ` + matchColumns + ` FROM matches`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY match_date ASC, id ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, f.Limit)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *matchRepo) DeleteAll(ctx context.Context, db DBTX) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM matches`)
	if err != nil {
		return 0, fmt.Errorf("delete matches: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	var kickoff time.Time
	err := row.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &kickoff, &m.HomeScore, &m.AwayScore, &m.ExternalID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan match: %w", err)
	}
	m.MatchDate = domain.NewLocalTime(kickoff)
	return &m, nil
}
