package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/scorecast/platform/internal/domain"
)

// OutboxStore reads and acknowledges event_outbox rows.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error)
	MarkPublished(ctx context.Context, seqIDs []int64) error
}

// Publisher delivers one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller polls the event_outbox table and publishes events to Kafka.
type OutboxPoller struct {
	store     OutboxStore
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(store OutboxStore, publisher Publisher, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
}

// WithInterval overrides the poll interval.
func (p *OutboxPoller) WithInterval(d time.Duration) *OutboxPoller {
	p.interval = d
	return p
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// PollOnce publishes one batch in sequence order and returns how many events
// were acknowledged. Publishing stops at the first failure so later events
// are never delivered ahead of an earlier one.
func (p *OutboxPoller) PollOnce(ctx context.Context) (int, error) {
	events, err := p.store.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(events))
	for _, e := range events {
		msg, err := json.Marshal(e.OutboxDraft)
		if err != nil {
			p.logger.Error("encode outbox event", "event_id", e.EventID, "error", err)
			break
		}
		if err := p.publisher.Publish(ctx, e.Topic(), []byte(e.AggregateID), msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			break
		}
		published = append(published, e.SeqID)
	}

	if len(published) == 0 {
		return 0, nil
	}
	if err := p.store.MarkPublished(ctx, published); err != nil {
		return 0, err
	}

	p.logger.Debug("outbox poll complete", "published", len(published))
	return len(published), nil
}
