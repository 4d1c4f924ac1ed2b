package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/models"
)

func TestCreateFlagDefaultsSeverity(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFlagRepository(db)

	mock.ExpectExec("INSERT INTO flags").WillReturnResult(sqlmock.NewResult(0, 1))

	flag := &models.Flag{SubjectType: models.FlagSubjectCampaign, SubjectID: "c1", Reason: "duplicate listing", FlaggedBy: "admin-1"}
	require.NoError(t, repo.Create(context.Background(), flag))
	assert.Equal(t, models.SeverityMedium, flag.Severity)
	assert.NotEmpty(t, flag.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveFlagMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFlagRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE flags SET resolved = TRUE")).
		WithArgs("f1", "user", "u1", "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), models.FlagSubjectUser, "u1", "f1", "admin-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFlagsForSubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFlagRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM flags WHERE subject_type = $1 AND subject_id = $2")).
		WithArgs("campaign", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_type", "subject_id", "reason", "severity", "flagged_by", "flagged_at", "resolved", "resolved_by", "resolved_at"}).
			AddRow("f1", "campaign", "c1", "spam", "high", "admin-1", time.Now(), false, nil, nil))

	flags, err := repo.ListForSubject(context.Background(), models.FlagSubjectCampaign, "c1")
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, models.SeverityHigh, flags[0].Severity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLogAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLog{Action: models.AuditActionLogin, Resource: "auth", Status: 200}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
