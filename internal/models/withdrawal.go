package models

import "time"

// WithdrawalStatus tracks a payout request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalProcessed WithdrawalStatus = "processed"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:  {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved: {WithdrawalProcessed, WithdrawalRejected},
}

// CanTransition reports whether a request may move from s to next.
func (s WithdrawalStatus) CanTransition(next WithdrawalStatus) bool {
	for _, allowed := range withdrawalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// WithdrawalRequest asks for raised funds to be paid to the institution.
type WithdrawalRequest struct {
	ID                        string           `db:"id" json:"id"`
	CampaignID                string           `db:"campaign_id" json:"campaignId"`
	RequestedBy               string           `db:"requested_by" json:"requestedBy"`
	Amount                    float64          `db:"amount" json:"amount"`
	Purpose                   string           `db:"purpose" json:"purpose"`
	InstitutionPaymentDetails string           `db:"institution_payment_details" json:"institutionPaymentDetails"`
	Status                    WithdrawalStatus `db:"status" json:"status"`
	AdminNotes                string           `db:"admin_notes" json:"adminNotes,omitempty"`
	ProcessedBy               *string          `db:"processed_by" json:"processedBy,omitempty"`
	ProcessedAt               *time.Time       `db:"processed_at" json:"processedAt,omitempty"`
	CreatedAt                 time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt                 time.Time        `db:"updated_at" json:"updatedAt"`

	CampaignTitle string `db:"campaign_title" json:"campaignTitle,omitempty"`
}

// WithdrawalFilter captures admin listing criteria.
type WithdrawalFilter struct {
	Status     *WithdrawalStatus
	CampaignID string
	Page       int
	PageSize   int
}
