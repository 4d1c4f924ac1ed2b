package models

import (
	"database/sql/driver"
	"time"
)

// ProfileStatus is the verification state of a student profile.
type ProfileStatus string

const (
	ProfilePending  ProfileStatus = "pending"
	ProfileVerified ProfileStatus = "verified"
	ProfileRejected ProfileStatus = "rejected"
)

// ProfileAction is an admin decision on a profile.
type ProfileAction string

const (
	ProfileActionVerify ProfileAction = "verify"
	ProfileActionReject ProfileAction = "reject"
)

// StatusFor maps an admin decision to the resulting profile status.
func (a ProfileAction) StatusFor() (ProfileStatus, bool) {
	switch a {
	case ProfileActionVerify:
		return ProfileVerified, true
	case ProfileActionReject:
		return ProfileRejected, true
	}
	return "", false
}

// DocumentRef points at an uploaded file.
type DocumentRef struct {
	URL      string `json:"url,omitempty"`
	PublicID string `json:"publicId,omitempty"`
}

// Empty reports whether no file is referenced.
func (d DocumentRef) Empty() bool { return d.URL == "" }

// AcademicDocuments groups the uploaded proofs for a profile. Stored as JSONB.
type AcademicDocuments struct {
	StudentIDCard   DocumentRef `json:"studentIdCard"`
	AdmissionLetter DocumentRef `json:"admissionLetter"`
	FeeStructure    DocumentRef `json:"feeStructure"`
}

// Value implements driver.Valuer.
func (d AcademicDocuments) Value() (driver.Value, error) { return jsonValue(d) }

// Scan implements sql.Scanner.
func (d *AcademicDocuments) Scan(src interface{}) error { return jsonScan(src, d) }

// Merge keeps existing references for documents that were not re-uploaded.
func (d AcademicDocuments) Merge(next AcademicDocuments) AcademicDocuments {
	if !next.StudentIDCard.Empty() {
		d.StudentIDCard = next.StudentIDCard
	}
	if !next.AdmissionLetter.Empty() {
		d.AdmissionLetter = next.AdmissionLetter
	}
	if !next.FeeStructure.Empty() {
		d.FeeStructure = next.FeeStructure
	}
	return d
}

// School describes the student's institution.
type School struct {
	Name    string `db:"school_name" json:"name"`
	Address string `db:"school_address" json:"address,omitempty"`
	Type    string `db:"school_type" json:"type,omitempty"`
}

// Course describes the programme of study.
type Course struct {
	Name        string `db:"course_name" json:"name"`
	Duration    string `db:"course_duration" json:"duration,omitempty"`
	YearOfStudy int    `db:"year_of_study" json:"yearOfStudy"`
}

// StudentProfile is the one-to-one academic profile of a student user.
type StudentProfile struct {
	ID                  string            `db:"id" json:"id"`
	UserID              string            `db:"user_id" json:"userId"`
	StudentID           string            `db:"student_id" json:"studentId"`
	DateOfBirth         time.Time         `db:"date_of_birth" json:"dateOfBirth"`
	Gender              string            `db:"gender" json:"gender,omitempty"`
	School              `json:"school"`
	Course              `json:"course"`
	Documents           AcademicDocuments `db:"documents" json:"academicDocuments"`
	Bio                 string            `db:"bio" json:"bio,omitempty"`
	AcademicPerformance string            `db:"academic_performance" json:"academicPerformance,omitempty"`
	FutureGoals         string            `db:"future_goals" json:"futureGoals,omitempty"`
	Status              ProfileStatus     `db:"status" json:"verificationStatus"`
	AdminNotes          string            `db:"admin_notes" json:"adminNotes,omitempty"`
	VerifiedAt          *time.Time        `db:"verified_at" json:"verifiedAt,omitempty"`
	RejectedAt          *time.Time        `db:"rejected_at" json:"rejectedAt,omitempty"`
	CreatedAt           time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updatedAt"`

	UserName  string       `db:"user_name" json:"-"`
	UserEmail string       `db:"user_email" json:"-"`
	User      *UserSummary `db:"-" json:"user,omitempty"`
}

// ProfileFilter captures admin listing criteria.
type ProfileFilter struct {
	Status   *ProfileStatus
	Search   string
	Page     int
	PageSize int
}
