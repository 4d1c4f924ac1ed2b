package models

import (
	"database/sql/driver"
	"math"
	"time"
)

// CampaignStatus is the funding lifecycle of a campaign.
type CampaignStatus string

const (
	CampaignUnderReview CampaignStatus = "under_review"
	CampaignActive      CampaignStatus = "active"
	CampaignCompleted   CampaignStatus = "completed"
	CampaignCancelled   CampaignStatus = "cancelled"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignCompleted || s == CampaignCancelled
}

// VerificationState is the derived overall verification status.
type VerificationState string

const (
	VerificationPending     VerificationState = "pending"
	VerificationUnderReview VerificationState = "under_review"
	VerificationVerified    VerificationState = "verified"
	VerificationRejected    VerificationState = "rejected"
)

// CampaignCategory enumerates what a campaign funds.
type CampaignCategory string

const (
	CategoryTuition       CampaignCategory = "tuition"
	CategoryBooks         CampaignCategory = "books"
	CategoryAccommodation CampaignCategory = "accommodation"
	CategoryResearch      CampaignCategory = "research"
	CategoryOther         CampaignCategory = "other"
)

// ReviewAction is an admin moderation decision on a campaign.
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
	// ReviewVerify records a partial verification update in the history.
	ReviewVerify ReviewAction = "verify"
)

// FeeStructure is the institutional fee snapshot attached to a campaign.
type FeeStructure struct {
	TotalFees          float64 `db:"total_fees" json:"totalFees"`
	AmountPaid         float64 `db:"amount_paid" json:"amountPaid"`
	OutstandingBalance float64 `db:"outstanding_balance" json:"outstandingBalance"`
}

// Recompute derives the outstanding balance.
func (f *FeeStructure) Recompute() {
	f.OutstandingBalance = f.TotalFees - f.AmountPaid
}

// InstitutionDetails identifies the student at their institution.
type InstitutionDetails struct {
	InstitutionName string `db:"institution_name" json:"institutionName"`
	StudentID       string `db:"institution_student_id" json:"studentId"`
	AcademicPeriod  string `db:"academic_period" json:"academicPeriod"`
}

// VerificationStatus holds the four admin checks and the derived overall state.
type VerificationStatus struct {
	StudentVerified     bool              `db:"student_verified" json:"studentVerified"`
	DocumentsVerified   bool              `db:"documents_verified" json:"documentsVerified"`
	InstitutionVerified bool              `db:"institution_verified" json:"institutionVerified"`
	FinancialsVerified  bool              `db:"financials_verified" json:"financialsVerified"`
	OverallStatus       VerificationState `db:"overall_status" json:"overallStatus"`
	VerificationNotes   string            `db:"verification_notes" json:"verificationNotes,omitempty"`
	VerifiedAt          *time.Time        `db:"verified_at" json:"verifiedAt,omitempty"`
	VerifiedBy          *string           `db:"verified_by" json:"verifiedBy,omitempty"`
}

// AllVerified reports whether every check passed.
func (v VerificationStatus) AllVerified() bool {
	return v.StudentVerified && v.DocumentsVerified && v.InstitutionVerified && v.FinancialsVerified
}

func (v VerificationStatus) anyVerified() bool {
	return v.StudentVerified || v.DocumentsVerified || v.InstitutionVerified || v.FinancialsVerified
}

// Recompute derives OverallStatus from the four checks. A rejected campaign stays rejected.
func (v *VerificationStatus) Recompute() {
	if v.OverallStatus == VerificationRejected {
		return
	}
	switch {
	case v.AllVerified():
		v.OverallStatus = VerificationVerified
	case v.anyVerified():
		v.OverallStatus = VerificationUnderReview
	default:
		v.OverallStatus = VerificationPending
	}
}

// VerificationFlags is a partial update of the four checks; nil leaves a check untouched.
type VerificationFlags struct {
	StudentVerified     *bool `json:"studentVerified"`
	DocumentsVerified   *bool `json:"documentsVerified"`
	InstitutionVerified *bool `json:"institutionVerified"`
	FinancialsVerified  *bool `json:"financialsVerified"`
}

// Empty reports whether no check is being changed.
func (f VerificationFlags) Empty() bool {
	return f.StudentVerified == nil && f.DocumentsVerified == nil && f.InstitutionVerified == nil && f.FinancialsVerified == nil
}

// Apply sets the provided checks on v and recomputes the overall state.
func (f VerificationFlags) Apply(v *VerificationStatus) {
	if f.StudentVerified != nil {
		v.StudentVerified = *f.StudentVerified
	}
	if f.DocumentsVerified != nil {
		v.DocumentsVerified = *f.DocumentsVerified
	}
	if f.InstitutionVerified != nil {
		v.InstitutionVerified = *f.InstitutionVerified
	}
	if f.FinancialsVerified != nil {
		v.FinancialsVerified = *f.FinancialsVerified
	}
	v.Recompute()
}

// PaymentInstructions describe how funds reach the institution. Stored as JSONB.
type PaymentInstructions struct {
	Instructions    string   `json:"instructions,omitempty"`
	PaymentVerified bool     `json:"paymentVerified"`
	VerifiedMethods []string `json:"verifiedMethods,omitempty"`
}

// Value implements driver.Valuer.
func (p PaymentInstructions) Value() (driver.Value, error) { return jsonValue(p) }

// Scan implements sql.Scanner.
func (p *PaymentInstructions) Scan(src interface{}) error { return jsonScan(src, p) }

// DocumentType classifies a verification document.
type DocumentType string

const (
	DocumentFeeStatement    DocumentType = "fee_statement"
	DocumentStudentID       DocumentType = "student_id"
	DocumentAdmissionLetter DocumentType = "admission_letter"
	DocumentOther           DocumentType = "other"
)

// VerificationDocument is an uploaded proof attached to a campaign.
type VerificationDocument struct {
	DocumentType       DocumentType `json:"documentType"`
	FileName           string       `json:"fileName"`
	FileURL            string       `json:"fileUrl"`
	PublicID           string       `json:"publicId,omitempty"`
	UploadedAt         time.Time    `json:"uploadedAt"`
	VerificationStatus string       `json:"verificationStatus"`
	AdminNotes         string       `json:"adminNotes,omitempty"`
}

// VerificationDocuments is the JSONB list of campaign documents.
type VerificationDocuments []VerificationDocument

// Value implements driver.Valuer.
func (d VerificationDocuments) Value() (driver.Value, error) {
	if d == nil {
		d = VerificationDocuments{}
	}
	return jsonValue([]VerificationDocument(d))
}

// Scan implements sql.Scanner.
func (d *VerificationDocuments) Scan(src interface{}) error { return jsonScan(src, (*[]VerificationDocument)(d)) }

// CampaignImage is an uploaded campaign picture.
type CampaignImage struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

// CampaignImages is the JSONB list of campaign pictures.
type CampaignImages []CampaignImage

// Value implements driver.Valuer.
func (i CampaignImages) Value() (driver.Value, error) {
	if i == nil {
		i = CampaignImages{}
	}
	return jsonValue([]CampaignImage(i))
}

// Scan implements sql.Scanner.
func (i *CampaignImages) Scan(src interface{}) error { return jsonScan(src, (*[]CampaignImage)(i)) }

// CampaignOwner is the owner projection joined onto campaign reads.
type CampaignOwner struct {
	Name   string `db:"owner_name" json:"name,omitempty"`
	Email  string `db:"owner_email" json:"email,omitempty"`
	School string `db:"owner_school" json:"school,omitempty"`
}

// Campaign is a student fundraising campaign.
type Campaign struct {
	ID                  string              `db:"id" json:"id"`
	OwnerID             string              `db:"owner_id" json:"ownerId"`
	Title               string              `db:"title" json:"title"`
	Description         string              `db:"description" json:"description"`
	TargetAmount        float64             `db:"target_amount" json:"targetAmount"`
	CurrentAmount       float64             `db:"current_amount" json:"currentAmount"`
	Currency            string              `db:"currency" json:"currency"`
	Category            CampaignCategory    `db:"category" json:"category"`
	Deadline            time.Time           `db:"deadline" json:"deadline"`
	Status              CampaignStatus      `db:"status" json:"status"`
	InstitutionDetails  `json:"institutionDetails"`
	FeeStructure        `json:"feeStructure"`
	PaymentInstructions PaymentInstructions   `db:"payment_instructions" json:"paymentInstructions"`
	Documents           VerificationDocuments `db:"verification_documents" json:"verificationDocuments"`
	Images              CampaignImages        `db:"images" json:"images"`
	VerificationStatus  `json:"verificationStatus"`
	CampaignOwner       `json:"owner"`
	Version             int       `db:"version" json:"-"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`

	Progress        float64                    `db:"-" json:"progress"`
	IsFullyFunded   bool                       `db:"-" json:"isFullyFunded"`
	IsFullyVerified bool                       `db:"-" json:"isFullyVerified"`
	Updates         []CampaignUpdate           `db:"-" json:"updates,omitempty"`
	History         []VerificationHistoryEntry `db:"-" json:"verificationHistory,omitempty"`
	Flags           []Flag                     `db:"-" json:"flags,omitempty"`
}

// Normalize recomputes every derived field. Call before persisting and after loading.
func (c *Campaign) Normalize() {
	c.FeeStructure.Recompute()
	c.VerificationStatus.Recompute()
	c.IsFullyVerified = c.VerificationStatus.AllVerified()
	c.IsFullyFunded = c.TargetAmount > 0 && c.CurrentAmount >= c.TargetAmount
	c.Progress = 0
	if c.TargetAmount > 0 {
		c.Progress = math.Min(100, math.Round(c.CurrentAmount/c.TargetAmount*10000)/100)
	}
}

// IsPublic reports whether the campaign may be listed and funded.
func (c *Campaign) IsPublic() bool {
	return c.Status == CampaignActive && c.VerificationStatus.OverallStatus == VerificationVerified
}

// VerificationHistoryEntry is an append-only moderation record.
type VerificationHistoryEntry struct {
	ID                  string            `db:"id" json:"id"`
	CampaignID          string            `db:"campaign_id" json:"campaignId"`
	Action              ReviewAction      `db:"action" json:"action"`
	AdminID             string            `db:"admin_id" json:"adminId"`
	Notes               string            `db:"notes" json:"notes,omitempty"`
	OverallStatus       VerificationState `db:"overall_status" json:"overallStatus"`
	Status              CampaignStatus    `db:"campaign_status" json:"campaignStatus"`
	StudentVerified     bool              `db:"student_verified" json:"studentVerified"`
	DocumentsVerified   bool              `db:"documents_verified" json:"documentsVerified"`
	InstitutionVerified bool              `db:"institution_verified" json:"institutionVerified"`
	FinancialsVerified  bool              `db:"financials_verified" json:"financialsVerified"`
	CreatedAt           time.Time         `db:"created_at" json:"createdAt"`
}

// NewHistoryEntry snapshots c after a moderation action.
func NewHistoryEntry(c *Campaign, action ReviewAction, adminID, notes string, at time.Time) VerificationHistoryEntry {
	return VerificationHistoryEntry{
		CampaignID:          c.ID,
		Action:              action,
		AdminID:             adminID,
		Notes:               notes,
		OverallStatus:       c.OverallStatus,
		Status:              c.Status,
		StudentVerified:     c.StudentVerified,
		DocumentsVerified:   c.DocumentsVerified,
		InstitutionVerified: c.InstitutionVerified,
		FinancialsVerified:  c.FinancialsVerified,
		CreatedAt:           at,
	}
}

// CampaignUpdate is a progress post written by the campaign owner.
type CampaignUpdate struct {
	ID         string    `db:"id" json:"id"`
	CampaignID string    `db:"campaign_id" json:"campaignId"`
	AuthorID   string    `db:"author_id" json:"authorId"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Campaign listing sort keys.
const (
	SortNewest        = "newest"
	SortCurrentAmount = "currentAmount"
	SortDeadline      = "deadline"
	SortUrgency       = "urgency"
)

// CampaignFilter captures listing criteria for public, owner and admin views.
type CampaignFilter struct {
	Category           *CampaignCategory
	Status             *CampaignStatus
	VerificationStatus *VerificationState
	OwnerID            string
	Search             string
	School             string
	MinAmount          *float64
	MaxAmount          *float64
	PublicOnly         bool
	Sort               string
	Page               int
	PageSize           int
}

// CampaignPage is the public listing payload.
type CampaignPage struct {
	Campaigns   []Campaign `json:"campaigns"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	Total       int        `json:"total"`
}
