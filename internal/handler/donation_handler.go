package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/response"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Signature"

const maxWebhookBody = 1 << 20

type donationService interface {
	Create(ctx context.Context, donorID string, req dto.CreateDonationRequest) (*models.Donation, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateDonationStatusRequest) (*models.Donation, error)
	ConfirmPayment(ctx context.Context, payload []byte, signature string) (*models.Donation, error)
	ListForCampaign(ctx context.Context, campaignID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error)
	Mine(ctx context.Context, donorID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error)
	Stats(ctx context.Context, donorID string) (*models.DonationStats, error)
}

// DonationHandler exposes donation endpoints and the payment webhook.
type DonationHandler struct {
	donations donationService
}

// NewDonationHandler constructs the handler.
func NewDonationHandler(donations donationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

// Create godoc
// @Summary Donate to a campaign
// @Tags Donations
// @Accept json
// @Produce json
// @Param payload body dto.CreateDonationRequest true "Donation"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /donations [post]
func (h *DonationHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CreateDonationRequest
	if !bindJSON(c, &req, "invalid donation payload") {
		return
	}
	donation, err := h.donations.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, donation)
}

// Mine godoc
// @Summary Caller's donations
// @Tags Donations
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /donations/my-donations [get]
func (h *DonationHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var query dto.PageQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	donations, pagination, err := h.donations.Mine(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, pagination)
}

// Stats godoc
// @Summary Caller's giving statistics
// @Tags Donations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /donations/stats [get]
func (h *DonationHandler) Stats(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	stats, err := h.donations.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ForCampaign godoc
// @Summary Completed donations of a campaign
// @Tags Donations
// @Produce json
// @Param campaignId path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Router /donations/campaign/{campaignId} [get]
func (h *DonationHandler) ForCampaign(c *gin.Context) {
	var query dto.PageQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	donations, pagination, err := h.donations.ListForCampaign(c.Request.Context(), c.Param("campaignId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, pagination)
}

// UpdateStatus godoc
// @Summary Change donation status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Donation ID"
// @Param payload body dto.UpdateDonationStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /admin/donations/{id}/status [patch]
func (h *DonationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateDonationStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	donation, err := h.donations.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Webhook godoc
// @Summary Payment gateway confirmation
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Signature header string true "HMAC-SHA256 of the body"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /payments/webhook [post]
func (h *DonationHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read webhook body"))
		return
	}
	donation, err := h.donations.ConfirmPayment(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}
