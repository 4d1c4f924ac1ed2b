package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/events"
	"github.com/noah-isme/edufund-api/pkg/jobs"
)

// Queue job types served by the outbox relay.
const (
	JobOutboxRelay = "outbox.relay"
	JobOutboxPurge = "outbox.purge"
)

type outboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
	MarkFailed(ctx context.Context, ids []string, cause string) error
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRelayConfig tunes batch size and retention.
type OutboxRelayConfig struct {
	BatchSize int
	Retention time.Duration
}

// OutboxRelay publishes events committed alongside domain writes.
type OutboxRelay struct {
	store     outboxStore
	publisher events.Publisher
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       OutboxRelayConfig
	now       func() time.Time
}

// NewOutboxRelay constructs the relay.
func NewOutboxRelay(store outboxStore, publisher events.Publisher, metrics *MetricsService, logger *zap.Logger, cfg OutboxRelayConfig) *OutboxRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	return &OutboxRelay{store: store, publisher: publisher, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// Relay publishes one batch of pending events and returns how many were delivered. A failed
// publish leaves the batch pending for the next run.
func (r *OutboxRelay) Relay(ctx context.Context) (int, error) {
	pending, err := r.store.FetchUnpublished(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	msgs := make([]events.Message, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, evt := range pending {
		msgs = append(msgs, events.Message{
			ID:         evt.ID,
			Key:        evt.AggregateID,
			Type:       evt.EventType,
			Payload:    evt.Payload,
			OccurredAt: evt.CreatedAt,
		})
		ids = append(ids, evt.ID)
	}
	if err := r.publisher.Publish(ctx, msgs...); err != nil {
		r.metrics.RecordOutbox("failed", len(ids))
		if markErr := r.store.MarkFailed(ctx, ids, err.Error()); markErr != nil {
			r.logger.Warn("failed to record outbox failure", zap.Error(markErr))
		}
		return 0, err
	}
	if err := r.store.MarkPublished(ctx, ids, r.now().UTC()); err != nil {
		return 0, err
	}
	r.metrics.RecordOutbox("published", len(ids))
	r.logger.Debug("outbox batch published", zap.Int("count", len(ids)))
	return len(ids), nil
}

// HandleRelay is the queue handler for JobOutboxRelay.
func (r *OutboxRelay) HandleRelay(ctx context.Context, job jobs.Job) error {
	_, err := r.Relay(ctx)
	return err
}

// HandlePurge is the queue handler for JobOutboxPurge.
func (r *OutboxRelay) HandlePurge(ctx context.Context, job jobs.Job) error {
	n, err := r.store.DeletePublishedBefore(ctx, r.now().Add(-r.cfg.Retention))
	if err != nil {
		return err
	}
	if n > 0 {
		r.logger.Info("published outbox events purged", zap.Int64("count", n))
	}
	return nil
}
