package models

import "time"

// ReportType names an exportable dataset.
type ReportType string

const (
	ReportCampaigns ReportType = "campaigns"
	ReportDonations ReportType = "donations"
)

// ReportFormat is the export file format.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportExport describes a generated report awaiting download.
type ReportExport struct {
	Type        ReportType   `json:"type"`
	Format      ReportFormat `json:"format"`
	Filename    string       `json:"filename"`
	Rows        int          `json:"rows"`
	DownloadURL string       `json:"downloadUrl"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// ReportFilter narrows exported rows.
type ReportFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
}

// CampaignReportRow is one row of the campaigns export.
type CampaignReportRow struct {
	ID            string    `db:"id"`
	Title         string    `db:"title"`
	OwnerName     string    `db:"owner_name"`
	Category      string    `db:"category"`
	Status        string    `db:"status"`
	OverallStatus string    `db:"overall_status"`
	TargetAmount  float64   `db:"target_amount"`
	CurrentAmount float64   `db:"current_amount"`
	Deadline      time.Time `db:"deadline"`
	CreatedAt     time.Time `db:"created_at"`
}

// DonationReportRow is one row of the donations export.
type DonationReportRow struct {
	ID            string    `db:"id"`
	CampaignTitle string    `db:"campaign_title"`
	DonorName     string    `db:"donor_name"`
	IsAnonymous   bool      `db:"is_anonymous"`
	Amount        float64   `db:"amount"`
	Currency      string    `db:"currency"`
	PaymentMethod string    `db:"payment_method"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

// TotalsDrift is a campaign whose stored total disagrees with its completed donations.
type TotalsDrift struct {
	CampaignID string  `db:"campaign_id"`
	Stored     float64 `db:"stored"`
	Computed   float64 `db:"computed"`
}
