package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/models"
)

func TestDashboardStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM campaigns) AS total_campaigns")).
		WithArgs("completed", "under_review", "pending", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"total_campaigns", "total_users", "total_donations", "total_amount", "pending_campaigns", "pending_withdrawals", "pending_profiles"}).
			AddRow(12, 40, 33, 4150.5, 3, 1, 2))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalCampaigns)
	assert.Equal(t, 4150.5, stats.TotalAmount)
	assert.Equal(t, 3, stats.PendingCampaigns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentCampaigns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY c.created_at DESC LIMIT 5")).
		WillReturnRows(addCampaignRow(campaignRows(), "c1", models.CampaignUnderReview, models.VerificationPending, false))

	recent, err := repo.RecentCampaigns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
