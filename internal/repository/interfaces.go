package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/scorecast/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxBeginner starts a transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is the subset of *pgxpool.Pool the services depend on.
type Pool interface {
	DBTX
	TxBeginner
}

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// Create inserts a new account. A taken username yields a CONFLICT error.
	Create(ctx context.Context, db DBTX, account *domain.Account) error

	// FindByID returns nil, nil when the account does not exist.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error)

	// FindByUsername returns nil, nil when the username is unknown.
	FindByUsername(ctx context.Context, db DBTX, username string) (*domain.Account, error)

	// UpdatePasswordHash replaces the stored credential hash.
	UpdatePasswordHash(ctx context.Context, db DBTX, id uuid.UUID, hash string) error

	// DeleteAll removes every account (and, by cascade, every prediction).
	DeleteAll(ctx context.Context, db DBTX) (int64, error)
}

// MatchFilter narrows ListMatches.
type MatchFilter struct {
	// Finished selects finalized (true) or open (false) matches; nil selects both.
	Finished *bool
	From     *domain.LocalTime
	To       *domain.LocalTime
	Limit    int
}

// MatchRepository provides access to matches.
type MatchRepository interface {
	// Create inserts a new match. A duplicate external id yields a CONFLICT error.
	Create(ctx context.Context, db DBTX, match *domain.Match) error

	// FindByID returns nil, nil when the match does not exist.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Match, error)

	// LockForUpdate acquires an exclusive row lock (SELECT FOR UPDATE) and returns the match.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Match, error)

	// LockForShare acquires a shared row lock (SELECT FOR SHARE). Shared
	// holders do not block each other but block LockForUpdate.
	LockForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Match, error)

	// LockByExternalID locks the match carrying the feed identifier, if any.
	LockByExternalID(ctx context.Context, tx pgx.Tx, externalID int64) (*domain.Match, error)

	// Update rewrites teams, date and score of an existing match.
	Update(ctx context.Context, db DBTX, match *domain.Match) error

	// UpdateScore rewrites only the score fields.
	UpdateScore(ctx context.Context, db DBTX, id uuid.UUID, score domain.Score) error

	// List returns matches ordered by kickoff.
	List(ctx context.Context, db DBTX, filter MatchFilter) ([]domain.Match, error)

	// DeleteAll removes every match (and, by cascade, every prediction).
	DeleteAll(ctx context.Context, db DBTX) (int64, error)
}

// PredictionRepository provides access to predictions.
type PredictionRepository interface {
	// Upsert creates the (account, match) prediction or overwrites its guessed
	// scores and stamps updated_at. created reports which happened.
	Upsert(ctx context.Context, db DBTX, p *domain.Prediction) (result *domain.Prediction, created bool, err error)

	// FindByID returns nil, nil when the prediction does not exist.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Prediction, error)

	// Delete removes a prediction by id.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) error

	// ListByAccount returns the account's predictions joined with their matches,
	// newest kickoff first.
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.PredictionWithMatch, error)

	// ListScored returns guess/final pairs for the account's predictions on
	// finalized matches.
	ListScored(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.ScoredPrediction, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the state change).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events in sequence order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRecord, error)

	// MarkPublished stamps published_at on the given rows.
	MarkPublished(ctx context.Context, db DBTX, seqIDs []int64) error
}
