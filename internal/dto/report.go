package dto

import "github.com/noah-isme/edufund-api/internal/models"

// ReportQuery captures GET /admin/reports/:type query params.
type ReportQuery struct {
	Format models.ReportFormat `form:"format" validate:"omitempty,oneof=csv pdf"`
	Status string              `form:"status" validate:"omitempty,max=32"`
	From   string              `form:"from"`
	To     string              `form:"to"`
}
