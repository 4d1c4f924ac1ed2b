package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edufund-api/internal/models"
)

// DashboardRepository computes admin overview counters.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats returns the headline counters in a single round trip.
func (r *DashboardRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM campaigns) AS total_campaigns,
	(SELECT COUNT(*) FROM users) AS total_users,
	(SELECT COUNT(*) FROM donations WHERE status = $1) AS total_donations,
	(SELECT COALESCE(SUM(amount), 0) FROM donations WHERE status = $1) AS total_amount,
	(SELECT COUNT(*) FROM campaigns WHERE status = $2) AS pending_campaigns,
	(SELECT COUNT(*) FROM withdrawal_requests WHERE status = $3) AS pending_withdrawals,
	(SELECT COUNT(*) FROM student_profiles WHERE status = $4) AS pending_profiles`
	var stats models.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query, models.DonationCompleted, models.CampaignUnderReview, models.WithdrawalPending, models.ProfilePending); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}

// RecentCampaigns returns the newest campaigns regardless of status.
func (r *DashboardRepository) RecentCampaigns(ctx context.Context, limit int) ([]models.Campaign, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf("%s%s ORDER BY c.created_at DESC LIMIT %d", campaignSelect, campaignFrom, limit)
	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query); err != nil {
		return nil, fmt.Errorf("recent campaigns: %w", err)
	}
	for i := range campaigns {
		campaigns[i].Normalize()
	}
	return campaigns, nil
}
