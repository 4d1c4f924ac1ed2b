package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edufund-api/internal/models"
)

// FlagRepository persists moderation flags on users and campaigns.
type FlagRepository struct {
	db *sqlx.DB
}

// NewFlagRepository constructs the repository.
func NewFlagRepository(db *sqlx.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// Create inserts a flag.
func (r *FlagRepository) Create(ctx context.Context, f *models.Flag) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.FlaggedAt.IsZero() {
		f.FlaggedAt = time.Now().UTC()
	}
	if f.Severity == "" {
		f.Severity = models.SeverityMedium
	}
	const query = `INSERT INTO flags (id, subject_type, subject_id, reason, severity, flagged_by, flagged_at, resolved) VALUES (:id, :subject_type, :subject_id, :reason, :severity, :flagged_by, :flagged_at, :resolved)`
	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		return fmt.Errorf("create flag: %w", err)
	}
	return nil
}

// Resolve marks an open flag on subject as resolved. A missing or resolved flag returns sql.ErrNoRows.
func (r *FlagRepository) Resolve(ctx context.Context, subject models.FlagSubject, subjectID, flagID, adminID string) error {
	const query = `UPDATE flags SET resolved = TRUE, resolved_by = $4, resolved_at = $5 WHERE id = $1 AND subject_type = $2 AND subject_id = $3 AND resolved = FALSE`
	res, err := r.db.ExecContext(ctx, query, flagID, subject, subjectID, adminID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resolve flag: %w", err)
	}
	return requireAffected(res)
}

// ListForSubject returns the flags raised on a subject, newest first.
func (r *FlagRepository) ListForSubject(ctx context.Context, subject models.FlagSubject, subjectID string) ([]models.Flag, error) {
	const query = `SELECT id, subject_type, subject_id, reason, severity, flagged_by, flagged_at, resolved, resolved_by, resolved_at FROM flags WHERE subject_type = $1 AND subject_id = $2 ORDER BY flagged_at DESC`
	var flags []models.Flag
	if err := r.db.SelectContext(ctx, &flags, query, subject, subjectID); err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return flags, nil
}
