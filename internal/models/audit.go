package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionRegister         = "REGISTER"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionProfileDecision  = "PROFILE_DECISION"
	AuditActionCampaignReview   = "CAMPAIGN_REVIEW"
	AuditActionCampaignVerify   = "CAMPAIGN_VERIFY"
	AuditActionFlagCreate       = "FLAG_CREATE"
	AuditActionFlagResolve      = "FLAG_RESOLVE"
	AuditActionUserUpdate       = "USER_UPDATE"
	AuditActionUserSuspend      = "USER_SUSPEND"
	AuditActionWithdrawal       = "WITHDRAWAL_PROCESS"
	AuditActionDonationStatus   = "DONATION_STATUS"
	AuditActionReportExport     = "REPORT_EXPORT"
	AuditActionPaymentConfirmed = "PAYMENT_CONFIRMED"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id" bson:"_id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty" bson:"user_id,omitempty"`
	Action     string    `db:"action" json:"action" bson:"action"`
	Resource   string    `db:"resource" json:"resource" bson:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty" bson:"resource_id,omitempty"`
	Status     int       `db:"status" json:"status" bson:"status"`
	IPAddress  string    `db:"ip_address" json:"ipAddress" bson:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"userAgent" bson:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt" bson:"created_at"`
}
