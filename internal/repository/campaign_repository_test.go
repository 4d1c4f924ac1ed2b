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

func campaignRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "title", "description", "target_amount", "current_amount", "currency", "category", "deadline", "status", "institution_name", "institution_student_id", "academic_period", "total_fees", "amount_paid", "outstanding_balance", "payment_instructions", "verification_documents", "images", "student_verified", "documents_verified", "institution_verified", "financials_verified", "overall_status", "verification_notes", "verified_at", "verified_by", "version", "created_at", "updated_at", "owner_name", "owner_email", "owner_school"})
}

func addCampaignRow(rows *sqlmock.Rows, id string, status models.CampaignStatus, overall models.VerificationState, verified bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "u1", "Help me finish law school", "A long description", 600.0, 150.0, "USD", "tuition", now.Add(720*time.Hour), string(status), "State University", "S123", "2024/2025", 1000.0, 400.0, 0.0, []byte(`{"instructions":"pay the bursar"}`), []byte(`[]`), []byte(`[]`), verified, verified, verified, verified, string(overall), "", nil, nil, 3, now, now, "Ada", "ada@example.com", "State University")
}

func TestFindCampaignNormalizes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.id = $1")).
		WithArgs("c1").
		WillReturnRows(addCampaignRow(campaignRows(), "c1", models.CampaignActive, models.VerificationVerified, true))

	c, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 600.0, c.OutstandingBalance)
	assert.Equal(t, 25.0, c.Progress)
	assert.True(t, c.IsFullyVerified)
	assert.Equal(t, "Ada", c.CampaignOwner.Name)
	assert.Equal(t, "pay the bursar", c.PaymentInstructions.Instructions)
	assert.Equal(t, 3, c.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPublicCampaignsBuildsFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	category := models.CategoryTuition
	where := " WHERE c.status = 'active' AND c.overall_status = 'verified' AND c.category = $1 AND (c.title ILIKE $2 OR c.description ILIKE $2 OR c.institution_name ILIKE $2)"
	mock.ExpectQuery(regexp.QuoteMeta(campaignFrom + where + " ORDER BY c.deadline ASC, c.current_amount DESC LIMIT 10 OFFSET 10")).
		WithArgs("tuition", "%law%").
		WillReturnRows(addCampaignRow(campaignRows(), "c1", models.CampaignActive, models.VerificationVerified, true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)" + campaignFrom + where)).
		WithArgs("tuition", "%law%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	campaigns, total, err := repo.List(context.Background(), models.CampaignFilter{
		PublicOnly: true,
		Category:   &category,
		Search:     "law",
		Sort:       models.SortUrgency,
		Page:       2,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCampaignsAmountRangeAndSchool(t *testing.T) {
	lo, hi := 100.0, 5000.0
	where, args := buildCampaignConditions(models.CampaignFilter{School: "state", MinAmount: &lo, MaxAmount: &hi})
	assert.Equal(t, " WHERE (c.institution_name ILIKE $1 OR sp.school_name ILIKE $1) AND c.target_amount >= $2 AND c.target_amount <= $3", where)
	assert.Equal(t, []interface{}{"%state%", 100.0, 5000.0}, args)

	where, args = buildCampaignConditions(models.CampaignFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestApplyModerationAppendsHistory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	c := &models.Campaign{ID: "c1", Status: models.CampaignActive, Version: 3}
	c.OverallStatus = models.VerificationVerified
	entry := models.NewHistoryEntry(c, models.ReviewApprove, "admin-1", "looks good", time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET status = ")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO campaign_verification_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	evt, err := models.NewOutboxEvent(models.AggregateCampaign, c.ID, models.EventCampaignReviewed, map[string]string{"action": "approve"})
	require.NoError(t, err)
	require.NoError(t, repo.ApplyModeration(context.Background(), c, &entry, evt))
	assert.Equal(t, 4, c.Version)
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyModerationVersionConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	c := &models.Campaign{ID: "c1", Version: 3}
	entry := models.NewHistoryEntry(c, models.ReviewVerify, "admin-1", "", time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET status = ")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyModeration(context.Background(), c, &entry, nil)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 3, c.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCampaignVersionConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET title = ")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Campaign{ID: "c1", Version: 1, TargetAmount: 100})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewQueueOldestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.status = $1 ORDER BY c.created_at ASC LIMIT 50")).
		WithArgs("under_review").
		WillReturnRows(addCampaignRow(campaignRows(), "c1", models.CampaignUnderReview, models.VerificationPending, false))

	queue, err := repo.ReviewQueue(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, models.VerificationPending, queue[0].OverallStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
