package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/response"
)

type donorService interface {
	Profile(ctx context.Context, userID string) (*models.DonorProfile, error)
	UpdateProfile(ctx context.Context, userID string, req dto.UpdateDonorProfileRequest) (*models.DonorProfile, error)
	UpdatePreferences(ctx context.Context, userID string, req dto.UpdatePreferencesRequest) (*models.DonorPreferences, error)
	Donations(ctx context.Context, userID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error)
}

// DonorHandler serves the donor's own profile.
type DonorHandler struct {
	donors donorService
}

// NewDonorHandler constructs the handler.
func NewDonorHandler(donors donorService) *DonorHandler {
	return &DonorHandler{donors: donors}
}

// Profile godoc
// @Summary Donor profile with giving totals
// @Tags Donors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /donors/profile [get]
func (h *DonorHandler) Profile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	profile, err := h.donors.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update donor contact details
// @Tags Donors
// @Accept json
// @Produce json
// @Param payload body dto.UpdateDonorProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Router /donors/profile [put]
func (h *DonorHandler) UpdateProfile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UpdateDonorProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.donors.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdatePreferences godoc
// @Summary Update notification preferences
// @Tags Donors
// @Accept json
// @Produce json
// @Param payload body dto.UpdatePreferencesRequest true "Preferences"
// @Success 200 {object} response.Envelope
// @Router /donors/preferences [put]
func (h *DonorHandler) UpdatePreferences(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UpdatePreferencesRequest
	if !bindJSON(c, &req, "invalid preferences payload") {
		return
	}
	prefs, err := h.donors.UpdatePreferences(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Donations godoc
// @Summary Donor donation history
// @Tags Donors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /donors/donations [get]
func (h *DonorHandler) Donations(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var query dto.PageQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	donations, pagination, err := h.donors.Donations(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, pagination)
}
