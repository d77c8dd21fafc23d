package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventAccountRegistered   EventType = "account.registered"
	EventMatchCreated        EventType = "match.created"
	EventMatchFinalized      EventType = "match.finalized"
	EventMatchSynced         EventType = "match.synced"
	EventPredictionSubmitted EventType = "prediction.submitted"
	EventPredictionDeleted   EventType = "prediction.deleted"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateAccount    AggregateType = "account"
	AggregateMatch      AggregateType = "match"
	AggregatePrediction AggregateType = "prediction"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OutboxRecord is a stored outbox row.
type OutboxRecord struct {
	SeqID int64
	OutboxDraft
	PublishedAt *time.Time
}

// Topic returns the message-bus topic the event is published to.
func (d OutboxDraft) Topic() string {
	return "scorecast." + string(d.AggregateType) + "." + string(d.EventType)
}

func newDraft(agg AggregateType, id string, evt EventType, payload interface{}) OutboxDraft {
	body, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   id,
		EventType:     evt,
		Payload:       body,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewAccountRegisteredEvent creates an account lifecycle event.
func NewAccountRegisteredEvent(a *Account) OutboxDraft {
	return newDraft(AggregateAccount, a.ID.String(), EventAccountRegistered, map[string]string{
		"account_id": a.ID.String(),
		"username":   a.Username,
		"role":       string(a.Role),
	})
}

// NewMatchCreatedEvent is emitted for manually entered matches.
func NewMatchCreatedEvent(m *Match) OutboxDraft {
	return newDraft(AggregateMatch, m.ID.String(), EventMatchCreated, m)
}

// NewMatchFinalizedEvent is emitted whenever a final score is written.
func NewMatchFinalizedEvent(m *Match) OutboxDraft {
	return newDraft(AggregateMatch, m.ID.String(), EventMatchFinalized, m)
}

// NewMatchSyncedEvent is emitted when the fixture feed inserts or rewrites a match.
func NewMatchSyncedEvent(m *Match, inserted bool) OutboxDraft {
	return newDraft(AggregateMatch, m.ID.String(), EventMatchSynced, map[string]interface{}{
		"match":    m,
		"inserted": inserted,
	})
}

// NewPredictionSubmittedEvent is emitted on every create or overwrite.
func NewPredictionSubmittedEvent(p *Prediction) OutboxDraft {
	return newDraft(AggregatePrediction, p.ID.String(), EventPredictionSubmitted, p)
}

// NewPredictionDeletedEvent is emitted when a prediction is withdrawn.
func NewPredictionDeletedEvent(p *Prediction) OutboxDraft {
	return newDraft(AggregatePrediction, p.ID.String(), EventPredictionDeleted, map[string]string{
		"prediction_id": p.ID.String(),
		"account_id":    p.AccountID.String(),
		"match_id":      p.MatchID.String(),
	})
}
