package infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/scorecast/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOutbox struct {
	records []domain.OutboxRecord
	marked  []int64
}

func (m *memOutbox) FetchUnpublished(_ context.Context, limit int) ([]domain.OutboxRecord, error) {
	if len(m.records) > limit {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func (m *memOutbox) MarkPublished(_ context.Context, ids []int64) error {
	m.marked = append(m.marked, ids...)
	return nil
}

type sentMessage struct {
	topic string
	key   string
	value []byte
}

type recordingPublisher struct {
	sent   []sentMessage
	failOn int
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	if p.failOn > 0 && len(p.sent)+1 == p.failOn {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, sentMessage{topic: topic, key: string(key), value: value})
	return nil
}

func outboxRecord(seq int64, evt domain.EventType) domain.OutboxRecord {
	return domain.OutboxRecord{
		SeqID: seq,
		OutboxDraft: domain.OutboxDraft{
			EventID:       uuid.New(),
			AggregateType: domain.AggregateMatch,
			AggregateID:   "m-1",
			EventType:     evt,
			Payload:       json.RawMessage(`{"ok":true}`),
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOutboxPoller_PublishesInOrder(t *testing.T) {
	store := &memOutbox{records: []domain.OutboxRecord{
		outboxRecord(1, domain.EventMatchCreated),
		outboxRecord(2, domain.EventMatchFinalized),
	}}
	pub := &recordingPublisher{}

	n, err := NewOutboxPoller(store, pub, quietLogger()).PollOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, store.marked)
	require.Len(t, pub.sent, 2)
	assert.Equal(t, "scorecast.match.match.created", pub.sent[0].topic)
	assert.Equal(t, "m-1", pub.sent[0].key)

	var decoded domain.OutboxDraft
	require.NoError(t, json.Unmarshal(pub.sent[1].value, &decoded))
	assert.Equal(t, domain.EventMatchFinalized, decoded.EventType)
}

func TestOutboxPoller_StopsAtFirstFailure(t *testing.T) {
	store := &memOutbox{records: []domain.OutboxRecord{
		outboxRecord(1, domain.EventMatchCreated),
		outboxRecord(2, domain.EventMatchFinalized),
		outboxRecord(3, domain.EventMatchSynced),
	}}
	pub := &recordingPublisher{failOn: 2}

	n, err := NewOutboxPoller(store, pub, quietLogger()).PollOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.marked)
}

func TestOutboxPoller_EmptyBatch(t *testing.T) {
	store := &memOutbox{}
	n, err := NewOutboxPoller(store, &recordingPublisher{}, quietLogger()).PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.marked)
}
