package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/models"
)

func TestFindDonorScansPreferences(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonorRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM donors WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "phone", "address", "preferences", "created_at", "updated_at"}).
			AddRow("u1", "+2348000", []byte(`{"city":"Abuja"}`), []byte(`{"emailNotifications":false,"monthlyUpdates":true,"anonymousByDefault":true}`), now, now))

	donor, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Abuja", donor.Address.City)
	assert.True(t, donor.Preferences.AnonymousByDefault)
	assert.False(t, donor.Preferences.EmailNotifications)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDonor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id) DO UPDATE")).WillReturnResult(sqlmock.NewResult(0, 1))

	donor := &models.Donor{UserID: "u1", Preferences: models.DefaultDonorPreferences()}
	require.NoError(t, repo.Upsert(context.Background(), donor))
	assert.False(t, donor.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportedCampaignsAggregatesCompleted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonorRepository(db)

	first := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	last := first.Add(48 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY d.campaign_id, c.title")).
		WithArgs("u1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"campaign_id", "campaign_title", "total_amount", "donation_count", "first_donation", "last_donation"}).
			AddRow("c1", "Law school", 80.0, 2, first, last))

	supported, err := repo.SupportedCampaigns(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, supported, 1)
	assert.Equal(t, 80.0, supported[0].TotalAmount)
	assert.Equal(t, last, supported[0].LastDonation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
