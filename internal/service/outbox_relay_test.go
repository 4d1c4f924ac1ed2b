package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/events"
	"github.com/noah-isme/edufund-api/pkg/jobs"
)

type memoryOutbox struct {
	events    []models.OutboxEvent
	published map[string]time.Time
	failures  map[string]string
	purgedAt  time.Time
}

func newMemoryOutbox(evts ...models.OutboxEvent) *memoryOutbox {
	return &memoryOutbox{events: evts, published: map[string]time.Time{}, failures: map[string]string{}}
}

func (m *memoryOutbox) FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	for _, evt := range m.events {
		if _, done := m.published[evt.ID]; done {
			continue
		}
		out = append(out, evt)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryOutbox) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	for _, id := range ids {
		m.published[id] = at
	}
	return nil
}

func (m *memoryOutbox) MarkFailed(ctx context.Context, ids []string, cause string) error {
	for _, id := range ids {
		m.failures[id] = cause
	}
	return nil
}

func (m *memoryOutbox) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.purgedAt = cutoff
	return int64(len(m.published)), nil
}

type capturePublisher struct {
	msgs []events.Message
	err  error
}

func (p *capturePublisher) Publish(ctx context.Context, msgs ...events.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func outboxFixture(t *testing.T) []models.OutboxEvent {
	t.Helper()
	first, err := models.NewOutboxEvent(models.AggregateDonation, "d1", models.EventDonationRecorded, map[string]float64{"amount": 50})
	require.NoError(t, err)
	second, err := models.NewOutboxEvent(models.AggregateCampaign, "c1", models.EventCampaignReviewed, map[string]string{"action": "approve"})
	require.NoError(t, err)
	return []models.OutboxEvent{*first, *second}
}

func TestOutboxRelayPublishesBatches(t *testing.T) {
	store := newMemoryOutbox(outboxFixture(t)...)
	publisher := &capturePublisher{}
	relay := NewOutboxRelay(store, publisher, NewMetricsService(), zap.NewNop(), OutboxRelayConfig{BatchSize: 1})

	n, err := relay.Relay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, relay.HandleRelay(context.Background(), jobs.Job{Type: JobOutboxRelay}))

	require.Len(t, publisher.msgs, 2)
	assert.Equal(t, "d1", publisher.msgs[0].Key)
	assert.Equal(t, models.EventCampaignReviewed, publisher.msgs[1].Type)
	assert.Len(t, store.published, 2)

	n, err = relay.Relay(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxRelayKeepsFailedBatchPending(t *testing.T) {
	store := newMemoryOutbox(outboxFixture(t)...)
	publisher := &capturePublisher{err: errors.New("broker unavailable")}
	relay := NewOutboxRelay(store, publisher, nil, zap.NewNop(), OutboxRelayConfig{})

	_, err := relay.Relay(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.published)
	assert.Len(t, store.failures, 2)

	publisher.err = nil
	n, err := relay.Relay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOutboxRelayPurgeUsesRetention(t *testing.T) {
	store := newMemoryOutbox()
	relay := NewOutboxRelay(store, &capturePublisher{}, nil, zap.NewNop(), OutboxRelayConfig{Retention: time.Hour})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	relay.now = func() time.Time { return fixed }

	require.NoError(t, relay.HandlePurge(context.Background(), jobs.Job{Type: JobOutboxPurge}))
	assert.Equal(t, fixed.Add(-time.Hour), store.purgedAt)
}
