package models

import "time"

// DonationStatus is the payment state of a donation.
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
	DonationRefunded  DonationStatus = "refunded"
)

var donationTransitions = map[DonationStatus][]DonationStatus{
	DonationPending:   {DonationCompleted, DonationFailed},
	DonationCompleted: {DonationRefunded},
}

// CanTransition reports whether a donation may move from s to next.
func (s DonationStatus) CanTransition(next DonationStatus) bool {
	for _, allowed := range donationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod identifies how a donation was paid.
type PaymentMethod string

const (
	PaymentManual      PaymentMethod = "manual"
	PaymentStripe      PaymentMethod = "stripe"
	PaymentPayPal      PaymentMethod = "paypal"
	PaymentFlutterwave PaymentMethod = "flutterwave"
)

// IsGateway reports whether the payment is settled asynchronously by a provider.
func (m PaymentMethod) IsGateway() bool {
	return m == PaymentStripe || m == PaymentPayPal || m == PaymentFlutterwave
}

// Donation is a contribution to a campaign.
type Donation struct {
	ID               string         `db:"id" json:"id"`
	CampaignID       string         `db:"campaign_id" json:"campaignId"`
	DonorID          string         `db:"donor_id" json:"donorId,omitempty"`
	Amount           float64        `db:"amount" json:"amount"`
	Currency         string         `db:"currency" json:"currency"`
	PaymentMethod    PaymentMethod  `db:"payment_method" json:"paymentMethod"`
	PaymentReference *string        `db:"payment_reference" json:"paymentReference,omitempty"`
	Status           DonationStatus `db:"status" json:"status"`
	Message          string         `db:"message" json:"message,omitempty"`
	IsAnonymous      bool           `db:"is_anonymous" json:"isAnonymous"`
	FeeAmount        float64        `db:"fee_amount" json:"feeAmount"`
	NetAmount        float64        `db:"net_amount" json:"netAmount"`
	ReceiptURL       string         `db:"receipt_url" json:"receiptUrl,omitempty"`
	CompletedAt      *time.Time     `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`

	DonorName     string `db:"donor_name" json:"donorName,omitempty"`
	CampaignTitle string `db:"campaign_title" json:"campaignTitle,omitempty"`
}

// AnonymousDonorName replaces the donor name wherever an anonymous donation is shown.
const AnonymousDonorName = "Anonymous"

// Masked hides donor identity on anonymous donations.
func (d Donation) Masked() Donation {
	if d.IsAnonymous {
		d.DonorID = ""
		d.DonorName = AnonymousDonorName
	}
	return d
}

// DonationFilter captures listing criteria.
type DonationFilter struct {
	CampaignID string
	DonorID    string
	Status     *DonationStatus
	Page       int
	PageSize   int
}

// DonationStats summarizes a donor's completed giving.
type DonationStats struct {
	TotalDonated       float64 `db:"total_donated" json:"totalDonated"`
	DonationCount      int     `db:"donation_count" json:"donationCount"`
	CampaignsSupported int     `db:"campaigns_supported" json:"campaignsSupported"`
}

// DonationStatusChange is the result of moving a donation between states.
type DonationStatusChange struct {
	Donation       Donation       `json:"donation"`
	PreviousStatus DonationStatus `json:"previousStatus"`
	// TotalDelta is applied to the campaign's current amount.
	TotalDelta float64 `json:"totalDelta"`
}
