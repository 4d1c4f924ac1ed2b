package dto

import "github.com/noah-isme/edufund-api/internal/models"

// SchoolInput is the school section of a profile submission.
type SchoolInput struct {
	Name    string `json:"name" form:"schoolName" validate:"required,max=200"`
	Address string `json:"address" form:"schoolAddress" validate:"omitempty,max=300"`
	Type    string `json:"type" form:"schoolType" validate:"omitempty,oneof=university college high_school vocational other"`
}

// CourseInput is the course section of a profile submission.
type CourseInput struct {
	Name        string `json:"name" form:"courseName" validate:"required,max=200"`
	Duration    string `json:"duration" form:"courseDuration" validate:"omitempty,max=50"`
	YearOfStudy int    `json:"yearOfStudy" form:"yearOfStudy" validate:"required,min=1,max=10"`
}

// SubmitProfileRequest creates or overwrites the caller's student profile. Multipart requests use
// the flat form keys; JSON requests nest school and course.
type SubmitProfileRequest struct {
	StudentID           string      `json:"studentId" form:"studentId" validate:"required,max=64"`
	DateOfBirth         string      `json:"dateOfBirth" form:"dateOfBirth" validate:"required"`
	Gender              string      `json:"gender" form:"gender" validate:"omitempty,oneof=male female other"`
	School              SchoolInput `json:"school"`
	Course              CourseInput `json:"course"`
	Bio                 string      `json:"bio" form:"bio" validate:"omitempty,max=2000"`
	AcademicPerformance string      `json:"academicPerformance" form:"academicPerformance" validate:"omitempty,max=2000"`
	FutureGoals         string      `json:"futureGoals" form:"futureGoals" validate:"omitempty,max=2000"`
}

// DecideProfileRequest is the admin decision payload.
type DecideProfileRequest struct {
	Action models.ProfileAction `json:"action" validate:"required,oneof=verify reject"`
	Notes  string               `json:"notes" validate:"omitempty,max=2000"`
}

// ProfileListQuery captures admin listing query params.
type ProfileListQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending verified rejected"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}
