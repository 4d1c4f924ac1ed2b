package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edufund-api/internal/models"
)

const insertOutboxQuery = `INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, attempts, created_at) VALUES (:id, :aggregate_type, :aggregate_id, :event_type, :payload, :attempts, :created_at)`

// OutboxRepository reads and acknowledges transactional outbox rows.
type OutboxRepository struct {
	db *sqlx.DB
}

// NewOutboxRepository constructs the repository.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// insertOutbox writes evt inside the caller's transaction. A nil event is a no-op.
func insertOutbox(ctx context.Context, tx *sqlx.Tx, evt *models.OutboxEvent) error {
	if evt == nil {
		return nil
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	if _, err := tx.NamedExecContext(ctx, insertOutboxQuery, evt); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// FetchUnpublished returns the oldest pending events.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, aggregate_type, aggregate_id, event_type, payload, attempts, last_error, created_at, published_at FROM outbox_events WHERE published_at IS NULL ORDER BY created_at ASC LIMIT $1`
	var events []models.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("fetch outbox events: %w", err)
	}
	return events, nil
}

// MarkPublished stamps the given events as delivered.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE outbox_events SET published_at = $1 WHERE id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, at, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery attempt.
func (r *OutboxRepository) MarkFailed(ctx context.Context, ids []string, cause string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE outbox_events SET attempts = attempts + 1, last_error = $1 WHERE id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, cause, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}

// DeletePublishedBefore purges delivered events older than cutoff.
func (r *OutboxRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM outbox_events WHERE published_at IS NOT NULL AND published_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete published outbox events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
