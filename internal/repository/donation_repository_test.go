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

func donationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "campaign_id", "donor_id", "amount", "currency", "payment_method", "payment_reference", "status", "message", "is_anonymous", "fee_amount", "net_amount", "receipt_url", "completed_at", "created_at", "updated_at", "donor_name", "campaign_title"})
}

func TestCreateCompletedDonationCreditsCampaign(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET current_amount = current_amount + $2")).
		WithArgs("c1", 50.0, sqlmock.AnyArg(), "active", "verified").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO donations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := &models.Donation{CampaignID: "c1", DonorID: "u1", Amount: 50, Currency: "USD", PaymentMethod: models.PaymentManual, Status: models.DonationCompleted}
	evt, err := models.NewOutboxEvent(models.AggregateDonation, "c1", models.EventDonationRecorded, map[string]float64{"amount": 50})
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), d, evt))
	assert.NotEmpty(t, d.ID)
	assert.NotNil(t, d.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePendingDonationDoesNotCredit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET current_amount = current_amount + $2")).
		WithArgs("c1", 0.0, sqlmock.AnyArg(), "active", "verified").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO donations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := &models.Donation{CampaignID: "c1", DonorID: "u1", Amount: 50, PaymentMethod: models.PaymentStripe, Status: models.DonationPending}
	require.NoError(t, repo.Create(context.Background(), d, nil))
	assert.Nil(t, d.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDonationNotFundable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET current_amount = current_amount + $2")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Donation{CampaignID: "c1", Amount: 10, Status: models.DonationCompleted}, nil)
	assert.ErrorIs(t, err, ErrNotFundable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRefundDecrementsTotal(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM donations WHERE id = $1 FOR UPDATE")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "donor_id", "amount", "status"}).AddRow("d1", "c1", "u1", 50.0, "completed"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET current_amount = GREATEST(current_amount + $2, 0)")).
		WithArgs("c1", -50.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET status = $2")).
		WithArgs("d1", "refunded", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.id = $1")).
		WithArgs("d1").
		WillReturnRows(donationRows().AddRow("d1", "c1", "u1", 50.0, "USD", "manual", nil, "refunded", "", false, 0.0, 50.0, "", now, now, now, "Ada", "Law school"))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	change, err := repo.UpdateStatus(context.Background(), "d1", models.DonationRefunded, "", func(ch models.DonationStatusChange) (*models.OutboxEvent, error) {
		return models.NewOutboxEvent(models.AggregateDonation, ch.Donation.ID, models.EventDonationStatusChanged, ch)
	})
	require.NoError(t, err)
	assert.Equal(t, -50.0, change.TotalDelta)
	assert.Equal(t, models.DonationCompleted, change.PreviousStatus)
	assert.Equal(t, models.DonationRefunded, change.Donation.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "donor_id", "amount", "status"}).AddRow("d1", "c1", "u1", 50.0, "failed"))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), "d1", models.DonationCompleted, "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCampaignDonationsCompletedOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	status := models.DonationCompleted
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND d.campaign_id = $1 AND d.status = $2 ORDER BY d.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("c1", "completed").
		WillReturnRows(donationRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM donations d WHERE 1=1 AND d.campaign_id = $1 AND d.status = $2")).
		WithArgs("c1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	donations, total, err := repo.List(context.Background(), models.DonationFilter{CampaignID: "c1", Status: &status})
	require.NoError(t, err)
	assert.Empty(t, donations)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsForDonor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) AS total_donated")).
		WithArgs("u1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"total_donated", "donation_count", "campaigns_supported"}).AddRow(175.0, 3, 2))

	stats, err := repo.StatsForDonor(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 175.0, stats.TotalDonated)
	assert.Equal(t, 3, stats.DonationCount)
	assert.Equal(t, 2, stats.CampaignsSupported)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTotalsDriftAndRecompute(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDonationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("HAVING c.current_amount <> COALESCE(SUM(d.amount), 0)")).
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows([]string{"campaign_id", "stored", "computed"}).AddRow("c1", 200.0, 150.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET current_amount = (SELECT COALESCE(SUM(amount), 0)")).
		WithArgs("c1", 200.0, "completed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	drift, err := repo.FindTotalsDrift(context.Background())
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, 150.0, drift[0].Computed)

	fixed, err := repo.RecomputeTotal(context.Background(), "c1", drift[0].Stored)
	require.NoError(t, err)
	assert.True(t, fixed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
