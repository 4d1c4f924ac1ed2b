package handler

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type reportServiceMock struct {
	exportType  string
	exportQuery dto.ReportQuery
	download    *service.ReportDownload
	downloadErr error
}

func (m *reportServiceMock) Export(ctx context.Context, actorID, reportType string, query dto.ReportQuery) (*models.ReportExport, error) {
	m.exportType = reportType
	m.exportQuery = query
	return &models.ReportExport{Type: models.ReportType(reportType), Format: models.ReportFormatCSV, DownloadURL: "/api/admin/reports/download/tok"}, nil
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func TestReportHandlerExport(t *testing.T) {
	mockSvc := &reportServiceMock{}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/admin/reports/donations?format=pdf&status=completed", nil)
	c.Params = gin.Params{{Key: "type", Value: "donations"}}
	withClaims(c, "admin", models.RoleAdmin)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "donations", mockSvc.exportType)
	assert.Equal(t, models.ReportFormatPDF, mockSvc.exportQuery.Format)
	assert.Equal(t, "completed", mockSvc.exportQuery.Status)
}

func TestReportHandlerDownloadReport(t *testing.T) {
	file, err := os.CreateTemp("", "report*.csv")
	require.NoError(t, err)
	defer os.Remove(file.Name())
	_, _ = file.WriteString("data")
	_, _ = file.Seek(0, 0)

	mockSvc := &reportServiceMock{
		download: &service.ReportDownload{
			File:        file,
			Filename:    "report.csv",
			Format:      models.ReportFormatCSV,
			ContentType: "text/csv",
			ExpiresAt:   time.Now().Add(time.Hour),
		},
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/admin/reports/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data", w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.csv")
}

func TestReportHandlerDownloadForbidden(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid download token")})

	c, w := newGinContext(http.MethodGet, "/admin/reports/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
