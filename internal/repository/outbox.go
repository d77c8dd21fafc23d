package repository

import (
	"context"
	"fmt"

	"github.com/scorecast/platform/internal/domain"
)

type outboxRepo struct{}

// NewOutboxRepository returns a pgx-backed OutboxRepository.
func NewOutboxRepository() OutboxRepository {
	return &outboxRepo{}
}

func (r *outboxRepo) Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error {
	_, err := db.Exec(ctx, `
		INSERT INTO event_outbox
		  (event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		draft.EventID,
		string(draft.AggregateType),
		draft.AggregateID,
		string(draft.EventType),
		[]byte(draft.Payload),
		draft.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepo) FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRecord, error) {
	rows, err := db.Query(ctx, `
		SELECT seq_id, event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY seq_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxRecord
	for rows.Next() {
		var rec domain.OutboxRecord
		var aggType, evtType string
		var payload []byte
		err := rows.Scan(&rec.SeqID, &rec.EventID, &aggType, &rec.AggregateID,
			&evtType, &payload, &rec.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		rec.AggregateType = domain.AggregateType(aggType)
		rec.EventType = domain.EventType(evtType)
		rec.Payload = payload
		events = append(events, rec)
	}
	return events, rows.Err()
}

func (r *outboxRepo) MarkPublished(ctx context.Context, db DBTX, seqIDs []int64) error {
	if len(seqIDs) == 0 {
		return nil
	}
	_, err := db.Exec(ctx, `UPDATE event_outbox SET published_at = now() WHERE seq_id = ANY($1)`, seqIDs)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// OutboxStore binds an OutboxRepository to a connection for the outbox poller.
type OutboxStore struct {
	DB   DBTX
	Repo OutboxRepository
}

func (s OutboxStore) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	return s.Repo.FetchUnpublished(ctx, s.DB, limit)
}

func (s OutboxStore) MarkPublished(ctx context.Context, seqIDs []int64) error {
	return s.Repo.MarkPublished(ctx, s.DB, seqIDs)
}
