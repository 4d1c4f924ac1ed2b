package dto

import "github.com/noah-isme/edufund-api/internal/models"

// CreateCampaignRequest is the multipart campaign submission.
type CreateCampaignRequest struct {
	Title           string  `form:"title" json:"title" validate:"required,min=10,max=200"`
	Description     string  `form:"description" json:"description" validate:"required,min=50"`
	TargetAmount    float64 `form:"targetAmount" json:"targetAmount" validate:"required,gte=1"`
	Category        string  `form:"category" json:"category" validate:"required,oneof=tuition books accommodation research other"`
	Deadline        string  `form:"deadline" json:"deadline" validate:"required"`
	Currency        string  `form:"currency" json:"currency" validate:"omitempty,len=3"`
	InstitutionName string  `form:"institutionName" json:"institutionName" validate:"required,min=2"`
	StudentID       string  `form:"studentId" json:"studentId" validate:"required"`
	AcademicPeriod  string  `form:"academicPeriod" json:"academicPeriod" validate:"required,min=2"`
	TotalFees       float64 `form:"totalFees" json:"totalFees" validate:"gte=0"`
	AmountPaid      float64 `form:"amountPaid" json:"amountPaid" validate:"gte=0,ltefield=TotalFees"`
	Instructions    string  `form:"paymentInstructions" json:"paymentInstructions" validate:"omitempty,max=2000"`
	PaymentVerified bool    `form:"paymentVerified" json:"paymentVerified"`
}

// UpdateCampaignRequest carries the owner-editable fields; nil leaves a field unchanged.
type UpdateCampaignRequest struct {
	Title               *string                     `json:"title" validate:"omitempty,min=10,max=200"`
	Description         *string                     `json:"description" validate:"omitempty,min=50"`
	TargetAmount        *float64                    `json:"targetAmount" validate:"omitempty,gte=1"`
	Category            *string                     `json:"category" validate:"omitempty,oneof=tuition books accommodation research other"`
	Deadline            *string                     `json:"deadline"`
	FeeStructure        *FeeStructureInput          `json:"feeStructure"`
	PaymentInstructions *models.PaymentInstructions `json:"paymentInstructions"`
}

// FeeStructureInput replaces the fee snapshot. The outstanding balance is always derived.
type FeeStructureInput struct {
	TotalFees  float64 `json:"totalFees" validate:"gte=0"`
	AmountPaid float64 `json:"amountPaid" validate:"gte=0,ltefield=TotalFees"`
}

// CampaignListQuery captures the public listing query params.
type CampaignListQuery struct {
	Category  string   `form:"category" validate:"omitempty,oneof=tuition books accommodation research other"`
	Search    string   `form:"search"`
	School    string   `form:"school"`
	MinAmount *float64 `form:"minAmount" validate:"omitempty,gte=0"`
	MaxAmount *float64 `form:"maxAmount" validate:"omitempty,gte=0"`
	Sort      string   `form:"sort" validate:"omitempty,oneof=newest recent createdAt currentAmount deadline urgency"`
	Page      int      `form:"page"`
	Limit     int      `form:"limit"`
}

// AdminCampaignQuery captures the admin listing query params.
type AdminCampaignQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=under_review active completed cancelled"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// ReviewCampaignRequest is the admin approve/reject payload.
type ReviewCampaignRequest struct {
	Action models.ReviewAction `json:"action" validate:"required,oneof=approve reject"`
	Notes  string              `json:"notes" validate:"omitempty,max=2000"`
}

// VerifyCampaignRequest sets a subset of the four verification checks.
type VerifyCampaignRequest struct {
	models.VerificationFlags
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// CampaignUpdateRequest is an owner progress post.
type CampaignUpdateRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=200"`
	Content string `json:"content" validate:"required,min=10"`
}

// FlagRequest raises a moderation flag on a user or campaign.
type FlagRequest struct {
	Reason   string              `json:"reason" validate:"required,min=3,max=500"`
	Severity models.FlagSeverity `json:"severity" validate:"omitempty,oneof=low medium high"`
}

// WithdrawalCreateRequest asks for raised funds to be paid out.
type WithdrawalCreateRequest struct {
	Amount                    float64 `json:"amount" validate:"required,gt=0"`
	Purpose                   string  `json:"purpose" validate:"required,min=5,max=500"`
	InstitutionPaymentDetails string  `json:"institutionPaymentDetails" validate:"required,max=2000"`
}

// ProcessWithdrawalRequest is the admin decision on a withdrawal.
type ProcessWithdrawalRequest struct {
	Status models.WithdrawalStatus `json:"status" validate:"required,oneof=approved rejected processed"`
	Notes  string                  `json:"notes" validate:"omitempty,max=2000"`
}

// WithdrawalListQuery captures admin listing query params.
type WithdrawalListQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending approved rejected processed"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}
