package models

import (
	"database/sql/driver"
	"time"
)

// DonorPreferences are the donor's notification settings. Stored as JSONB.
type DonorPreferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	MonthlyUpdates     bool `json:"monthlyUpdates"`
	AnonymousByDefault bool `json:"anonymousByDefault"`
}

// DefaultDonorPreferences is applied when a donor record is first created.
func DefaultDonorPreferences() DonorPreferences {
	return DonorPreferences{EmailNotifications: true, MonthlyUpdates: true}
}

// Value implements driver.Valuer.
func (p DonorPreferences) Value() (driver.Value, error) { return jsonValue(p) }

// Scan implements sql.Scanner.
func (p *DonorPreferences) Scan(src interface{}) error { return jsonScan(src, p) }

// Donor holds donor-specific profile data. Giving totals are never stored here.
type Donor struct {
	UserID      string           `db:"user_id" json:"userId"`
	Phone       string           `db:"phone" json:"phone,omitempty"`
	Address     Address          `db:"address" json:"address"`
	Preferences DonorPreferences `db:"preferences" json:"preferences"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

// SupportedCampaign aggregates a donor's completed donations to one campaign.
type SupportedCampaign struct {
	CampaignID    string    `db:"campaign_id" json:"campaignId"`
	CampaignTitle string    `db:"campaign_title" json:"campaignTitle"`
	TotalAmount   float64   `db:"total_amount" json:"totalAmount"`
	DonationCount int       `db:"donation_count" json:"donationCount"`
	FirstDonation time.Time `db:"first_donation" json:"firstDonation"`
	LastDonation  time.Time `db:"last_donation" json:"lastDonation"`
}

// DonorProfile is the read model combining the donor record with computed aggregates.
type DonorProfile struct {
	User               UserSummary         `json:"user"`
	Donor              Donor               `json:"donor"`
	TotalDonated       float64             `json:"totalDonated"`
	CampaignsSupported []SupportedCampaign `json:"campaignsSupported"`
}
