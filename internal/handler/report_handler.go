package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/response"
)

type reportService interface {
	Export(ctx context.Context, actorID, reportType string, query dto.ReportQuery) (*models.ReportExport, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes admin exports.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Export godoc
// @Summary Export campaigns or donations
// @Tags Reports
// @Produce json
// @Param type path string true "campaigns or donations"
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter"
// @Param from query string false "Created from"
// @Param to query string false "Created before"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/{type} [get]
func (h *ReportHandler) Export(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var query dto.ReportQuery
	if !bindQuery(c, &query, "invalid report query") {
		return
	}
	export, err := h.reports.Export(c.Request.Context(), claims.UserID, c.Param("type"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /admin/reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}
