package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/export"
	"github.com/noah-isme/edufund-api/pkg/storage"
)

type reportRowSource interface {
	CampaignRows(ctx context.Context, filter models.ReportFilter) ([]models.CampaignReportRow, error)
	DonationRows(ctx context.Context, filter models.ReportFilter) ([]models.DonationReportRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	rows      reportRowSource
	storage   fileStorage
	exporters map[models.ReportFormat]export.Exporter
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF exporters.
func NewExportService(rows reportRowSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		rows:    rows,
		storage: store,
		exporters: map[models.ReportFormat]export.Exporter{
			models.ReportFormatCSV: export.NewCSVExporter(),
			models.ReportFormatPDF: export.NewPDFExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate renders a report, stores it and returns a signed download link.
func (s *ExportService) Generate(ctx context.Context, reportType models.ReportType, format models.ReportFormat, filter models.ReportFilter) (*models.ReportExport, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	dataset, err := s.buildDataset(ctx, reportType, filter)
	if err != nil {
		return nil, err
	}
	payload, err := exporter.Render(dataset)
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(reportType, filter, exporter.Extension())
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}
	token, err := s.signer.Generate(string(reportType), relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	return &models.ReportExport{
		Type:        reportType,
		Format:      format,
		Filename:    relPath,
		Rows:        len(dataset.Rows),
		DownloadURL: fmt.Sprintf("%s/admin/reports/download/%s", prefix, token.Value),
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.SignedToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(reportType models.ReportType, filter models.ReportFilter, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	status := sanitizeFilename(filter.Status)
	return fmt.Sprintf("%s_%s_%s.%s", reportType, status, timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, reportType models.ReportType, filter models.ReportFilter) (export.Dataset, error) {
	switch reportType {
	case models.ReportCampaigns:
		return s.buildCampaignDataset(ctx, filter)
	case models.ReportDonations:
		return s.buildDonationDataset(ctx, filter)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", reportType)
	}
}

func (s *ExportService) buildCampaignDataset(ctx context.Context, filter models.ReportFilter) (export.Dataset, error) {
	rows, err := s.rows.CampaignRows(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}
	headers := []string{"ID", "Title", "Owner", "Category", "Status", "Verification", "Target", "Raised", "Deadline", "Created At"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"ID":           row.ID,
			"Title":        row.Title,
			"Owner":        row.OwnerName,
			"Category":     row.Category,
			"Status":       row.Status,
			"Verification": row.OverallStatus,
			"Target":       formatAmount(row.TargetAmount),
			"Raised":       formatAmount(row.CurrentAmount),
			"Deadline":     row.Deadline.UTC().Format("2006-01-02"),
			"Created At":   formatReportTime(row.CreatedAt),
		})
	}
	return export.Dataset{Title: "Campaign Report", Headers: headers, Rows: dataRows}, nil
}

func (s *ExportService) buildDonationDataset(ctx context.Context, filter models.ReportFilter) (export.Dataset, error) {
	rows, err := s.rows.DonationRows(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}
	headers := []string{"ID", "Campaign", "Donor", "Amount", "Currency", "Method", "Status", "Created At"}
	dataRows := make([]map[string]string, 0, len(rows))
	var total float64
	for _, row := range rows {
		donor := row.DonorName
		if row.IsAnonymous {
			donor = models.AnonymousDonorName
		}
		if row.Status == string(models.DonationCompleted) {
			total += row.Amount
		}
		dataRows = append(dataRows, map[string]string{
			"ID":         row.ID,
			"Campaign":   row.CampaignTitle,
			"Donor":      donor,
			"Amount":     formatAmount(row.Amount),
			"Currency":   row.Currency,
			"Method":     row.PaymentMethod,
			"Status":     row.Status,
			"Created At": formatReportTime(row.CreatedAt),
		})
	}
	title := fmt.Sprintf("Donation Report (completed %s)", formatAmount(total))
	return export.Dataset{Title: title, Headers: headers, Rows: dataRows}, nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatReportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
