package service

import (
	"context"
	"io"
	"net/url"
	"path"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/jobs"
)

func newReportServiceForTest(t *testing.T) *ReportService {
	t.Helper()
	exporter, _ := newExportServiceForTest(t)
	return NewReportService(exporter, validator.New(), zap.NewNop())
}

func tokenFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return path.Base(u.Path)
}

func TestReportServiceExportAndDownload(t *testing.T) {
	svc := newReportServiceForTest(t)
	ctx := context.Background()

	result, err := svc.Export(ctx, "admin-1", "campaigns", dto.ReportQuery{From: "2026-01-01", To: "2026-12-31"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatCSV, result.Format)

	download, err := svc.ResolveDownload(ctx, tokenFromURL(t, result.DownloadURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "'=HYPERLINK")
}

func TestReportServiceValidation(t *testing.T) {
	svc := newReportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Export(ctx, "admin-1", "grades", dto.ReportQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(ctx, "admin-1", "donations", dto.ReportQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(ctx, "admin-1", "donations", dto.ReportQuery{From: "2026-05-01", To: "2026-04-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceRejectsTamperedToken(t *testing.T) {
	svc := newReportServiceForTest(t)

	_, err := svc.ResolveDownload(context.Background(), "campaigns.1.abc.def")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCleanupKeepsFreshFiles(t *testing.T) {
	svc := newReportServiceForTest(t)
	ctx := context.Background()

	result, err := svc.Export(ctx, "admin-1", "donations", dto.ReportQuery{Format: models.ReportFormatPDF})
	require.NoError(t, err)
	require.NoError(t, svc.HandleCleanup(ctx, jobs.Job{Type: JobReportCleanup}))

	download, err := svc.ResolveDownload(ctx, tokenFromURL(t, result.DownloadURL))
	require.NoError(t, err)
	download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
}
