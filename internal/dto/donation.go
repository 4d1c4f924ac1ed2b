package dto

import "github.com/noah-isme/edufund-api/internal/models"

// CreateDonationRequest records a donation against a campaign.
type CreateDonationRequest struct {
	CampaignID    string               `json:"campaignId" validate:"required,uuid"`
	Amount        float64              `json:"amount" validate:"required,gt=0"`
	Message       string               `json:"message" validate:"omitempty,max=500"`
	IsAnonymous   *bool                `json:"isAnonymous"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=manual stripe paypal flutterwave"`
}

// UpdateDonationStatusRequest is the admin status change payload.
type UpdateDonationStatusRequest struct {
	Status models.DonationStatus `json:"status" validate:"required,oneof=completed failed refunded"`
}

// PaymentWebhookRequest is the gateway confirmation callback.
type PaymentWebhookRequest struct {
	DonationID string `json:"donationId" validate:"required,uuid"`
	Status     string `json:"status" validate:"required,oneof=succeeded failed"`
	Reference  string `json:"reference" validate:"omitempty,max=200"`
}

// PageQuery is a plain page/limit pair.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
