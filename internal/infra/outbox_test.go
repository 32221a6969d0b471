package infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentlover/platform/internal/domain"
)

type fakeOutboxSource struct {
	rows   []domain.OutboxRecord
	marked []int64
}

func (f *fakeOutboxSource) FetchUnpublished(_ context.Context, limit int) ([]domain.OutboxRecord, error) {
	var out []domain.OutboxRecord
	for _, r := range f.rows {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeOutboxSource) MarkPublished(_ context.Context, ids []int64) error {
	f.marked = append(f.marked, ids...)
	return nil
}

type sentMessage struct {
	topic   string
	key     string
	value   []byte
	headers map[string]string
}

type fakePublisher struct {
	sent   []sentMessage
	failAt int
}

func (f *fakePublisher) Publish(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	if f.failAt > 0 && len(f.sent)+1 == f.failAt {
		return errors.New("broker down")
	}
	f.sent = append(f.sent, sentMessage{topic: topic, key: string(key), value: value, headers: headers})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func outboxRow(seq int64, aggregateID string) domain.OutboxRecord {
	return domain.OutboxRecord{
		Seq: seq,
		OutboxDraft: domain.OutboxDraft{
			EventID:       uuid.New(),
			AggregateType: domain.AggregateTransaction,
			AggregateID:   aggregateID,
			EventType:     domain.EventTransactionStatusChange,
			Payload:       json.RawMessage(`{"to":"paid"}`),
			OccurredAt:    time.Now(),
		},
	}
}

func TestOutboxPoller_PublishesAndMarks(t *testing.T) {
	src := &fakeOutboxSource{rows: []domain.OutboxRecord{outboxRow(1, "tx-1"), outboxRow(2, "tx-2")}}
	pub := &fakePublisher{}
	p := NewOutboxPoller(src, pub, time.Second, 10, discardLogger())

	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, src.marked)
	require.Len(t, pub.sent, 2)
	assert.Equal(t, "rentlover.transaction.transaction.status_changed", pub.sent[0].topic)
	assert.Equal(t, "tx-1", pub.sent[0].key)
	assert.Equal(t, "transaction.status_changed", pub.sent[0].headers["event_type"])
	assert.NotEmpty(t, pub.sent[0].headers["event_id"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.sent[0].value, &body))
	assert.Equal(t, "tx-1", body["aggregate_id"])
}

func TestOutboxPoller_StopsAtFirstFailure(t *testing.T) {
	src := &fakeOutboxSource{rows: []domain.OutboxRecord{outboxRow(1, "a"), outboxRow(2, "b"), outboxRow(3, "c")}}
	pub := &fakePublisher{failAt: 2}
	p := NewOutboxPoller(src, pub, time.Second, 10, discardLogger())

	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, src.marked)
}

func TestOutboxPoller_PartitionKeyPreferred(t *testing.T) {
	row := outboxRow(7, "tx-9")
	row.PartitionKey = "talent-1"
	src := &fakeOutboxSource{rows: []domain.OutboxRecord{row}}
	pub := &fakePublisher{}

	_, err := NewOutboxPoller(src, pub, 0, 0, discardLogger()).Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "talent-1", pub.sent[0].key)
}

func TestOutboxPoller_Empty(t *testing.T) {
	src := &fakeOutboxSource{}
	n, err := NewOutboxPoller(src, &fakePublisher{}, 0, 0, discardLogger()).Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, src.marked)
}
