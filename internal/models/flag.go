package models

import "time"

// FlagSubject identifies what a moderation flag is attached to.
type FlagSubject string

const (
	FlagSubjectUser     FlagSubject = "user"
	FlagSubjectCampaign FlagSubject = "campaign"
)

// FlagSeverity ranks a moderation flag.
type FlagSeverity string

const (
	SeverityLow    FlagSeverity = "low"
	SeverityMedium FlagSeverity = "medium"
	SeverityHigh   FlagSeverity = "high"
)

// Flag is an abuse or moderation marker raised by an admin.
type Flag struct {
	ID          string       `db:"id" json:"id"`
	SubjectType FlagSubject  `db:"subject_type" json:"subjectType"`
	SubjectID   string       `db:"subject_id" json:"subjectId"`
	Reason      string       `db:"reason" json:"reason"`
	Severity    FlagSeverity `db:"severity" json:"severity"`
	FlaggedBy   string       `db:"flagged_by" json:"flaggedBy"`
	FlaggedAt   time.Time    `db:"flagged_at" json:"flaggedAt"`
	Resolved    bool         `db:"resolved" json:"resolved"`
	ResolvedBy  *string      `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time   `db:"resolved_at" json:"resolvedAt,omitempty"`
}
