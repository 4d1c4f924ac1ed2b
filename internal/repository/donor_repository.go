package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edufund-api/internal/models"
)

// DonorRepository persists donor records and computes giving aggregates on read.
type DonorRepository struct {
	db *sqlx.DB
}

// NewDonorRepository constructs the repository.
func NewDonorRepository(db *sqlx.DB) *DonorRepository {
	return &DonorRepository{db: db}
}

// FindByUserID returns the donor record of a user.
func (r *DonorRepository) FindByUserID(ctx context.Context, userID string) (*models.Donor, error) {
	const query = `SELECT user_id, phone, address, preferences, created_at, updated_at FROM donors WHERE user_id = $1`
	var donor models.Donor
	if err := r.db.GetContext(ctx, &donor, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find donor: %w", err)
	}
	return &donor, nil
}

// Upsert creates or replaces the donor record.
func (r *DonorRepository) Upsert(ctx context.Context, donor *models.Donor) error {
	now := time.Now().UTC()
	if donor.CreatedAt.IsZero() {
		donor.CreatedAt = now
	}
	donor.UpdatedAt = now
	const query = `INSERT INTO donors (user_id, phone, address, preferences, created_at, updated_at) VALUES (:user_id, :phone, :address, :preferences, :created_at, :updated_at) ON CONFLICT (user_id) DO UPDATE SET phone = EXCLUDED.phone, address = EXCLUDED.address, preferences = EXCLUDED.preferences, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, donor); err != nil {
		return fmt.Errorf("upsert donor: %w", err)
	}
	return nil
}

// SupportedCampaigns aggregates completed donations per campaign for a donor.
func (r *DonorRepository) SupportedCampaigns(ctx context.Context, userID string) ([]models.SupportedCampaign, error) {
	const query = `SELECT d.campaign_id, c.title AS campaign_title, SUM(d.amount) AS total_amount, COUNT(*) AS donation_count, MIN(d.created_at) AS first_donation, MAX(d.created_at) AS last_donation FROM donations d JOIN campaigns c ON c.id = d.campaign_id WHERE d.donor_id = $1 AND d.status = $2 GROUP BY d.campaign_id, c.title ORDER BY last_donation DESC`
	var supported []models.SupportedCampaign
	if err := r.db.SelectContext(ctx, &supported, query, userID, models.DonationCompleted); err != nil {
		return nil, fmt.Errorf("list supported campaigns: %w", err)
	}
	return supported, nil
}
