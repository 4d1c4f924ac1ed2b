package dto

import "github.com/noah-isme/edufund-api/internal/models"

// UserListQuery captures admin user listing query params.
type UserListQuery struct {
	Role      string `form:"role" validate:"omitempty,oneof=student donor admin"`
	Suspended *bool  `form:"suspended"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// AdminUpdateUserRequest edits role and verification flag.
type AdminUpdateUserRequest struct {
	Role       *models.UserRole `json:"role" validate:"omitempty,oneof=student donor admin"`
	IsVerified *bool            `json:"isVerified"`
}

// SuspendUserRequest toggles suspension.
type SuspendUserRequest struct {
	Suspended bool   `json:"suspended"`
	Reason    string `json:"reason" validate:"omitempty,max=500"`
}
