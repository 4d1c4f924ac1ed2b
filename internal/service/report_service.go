package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/jobs"
	"github.com/noah-isme/edufund-api/pkg/storage"
)

// JobReportCleanup is the queue job type that purges expired exports.
const JobReportCleanup = "reports.cleanup"

type exportGenerator interface {
	Generate(ctx context.Context, reportType models.ReportType, format models.ReportFormat, filter models.ReportFilter) (*models.ReportExport, error)
	ParseToken(token string, allowExpired bool) (storage.SignedToken, error)
	Open(relPath string) (*os.File, error)
	Cleanup(ttl time.Duration) ([]string, error)
}

// ReportService validates admin export requests and resolves downloads.
type ReportService struct {
	exporter  exportGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	Format      models.ReportFormat
	ContentType string
	ExpiresAt   time.Time
}

// NewReportService constructs the report service.
func NewReportService(exporter exportGenerator, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReportService{exporter: exporter, validator: validate, logger: logger}
}

// Export renders the requested report. Format defaults to CSV.
func (s *ReportService) Export(ctx context.Context, actorID, reportType string, query dto.ReportQuery) (*models.ReportExport, error) {
	rt := models.ReportType(reportType)
	if !isValidReportType(rt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid report query")
	}
	format := query.Format
	if format == "" {
		format = models.ReportFormatCSV
	}
	filter, err := reportFilter(query)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Generate(ctx, rt, format, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate report")
	}
	s.logger.Info("report exported",
		zap.String("type", reportType),
		zap.String("format", string(format)),
		zap.Int("rows", result.Rows),
		zap.String("actor_id", actorID),
	)
	return result, nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	signed, err := s.exporter.ParseToken(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.exporter.Open(signed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	format := models.ReportFormat(strings.TrimPrefix(filepath.Ext(signed.Path), "."))
	contentType := "text/csv"
	if format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(signed.Path),
		Format:      format,
		ContentType: contentType,
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}

// HandleCleanup is the queue handler for JobReportCleanup.
func (s *ReportService) HandleCleanup(ctx context.Context, job jobs.Job) error {
	deleted, err := s.exporter.Cleanup(0)
	if err != nil {
		s.logger.Sugar().Warnw("report cleanup failed", "error", err)
		return err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
	return nil
}

func reportFilter(query dto.ReportQuery) (models.ReportFilter, error) {
	filter := models.ReportFilter{Status: strings.TrimSpace(query.Status)}
	if query.From != "" {
		from, ok := parseDate(query.From)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "from must be a date")
		}
		filter.From = &from
	}
	if query.To != "" {
		to, ok := parseDate(query.To)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "to must be a date")
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	return filter, nil
}

func isValidReportType(t models.ReportType) bool {
	return t == models.ReportCampaigns || t == models.ReportDonations
}
