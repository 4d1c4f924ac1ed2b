package dto

import "github.com/noah-isme/edufund-api/internal/models"

// UpdateDonorProfileRequest edits the donor contact details.
type UpdateDonorProfileRequest struct {
	Name    *string         `json:"name" validate:"omitempty,min=2,max=100"`
	Phone   *string         `json:"phone" validate:"omitempty,max=32"`
	Address *models.Address `json:"address"`
}

// UpdatePreferencesRequest replaces the donor preferences; nil leaves a setting unchanged.
type UpdatePreferencesRequest struct {
	EmailNotifications *bool `json:"emailNotifications"`
	MonthlyUpdates     *bool `json:"monthlyUpdates"`
	AnonymousByDefault *bool `json:"anonymousByDefault"`
}
