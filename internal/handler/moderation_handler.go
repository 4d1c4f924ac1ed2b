package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/middleware"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/response"
)

type moderationService interface {
	Review(ctx context.Context, adminID, campaignID string, req dto.ReviewCampaignRequest) (*models.Campaign, error)
	Verify(ctx context.Context, adminID, campaignID string, req dto.VerifyCampaignRequest) (*models.Campaign, error)
	ReviewQueue(ctx context.Context, limit int) ([]models.Campaign, error)
	ListAll(ctx context.Context, query dto.AdminCampaignQuery) ([]models.Campaign, *models.Pagination, error)
	FlagCampaign(ctx context.Context, adminID, campaignID string, req dto.FlagRequest) (*models.Flag, error)
	ResolveCampaignFlag(ctx context.Context, adminID, campaignID, flagID string) error
}

// ModerationHandler exposes admin campaign review endpoints.
type ModerationHandler struct {
	moderation moderationService
}

// NewModerationHandler constructs the handler.
func NewModerationHandler(moderation moderationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

// List godoc
// @Summary List all campaigns
// @Tags Admin
// @Produce json
// @Param status query string false "Lifecycle status"
// @Param search query string false "Search title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/campaigns [get]
func (h *ModerationHandler) List(c *gin.Context) {
	var query dto.AdminCampaignQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	campaigns, pagination, err := h.moderation.ListAll(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaigns, pagination, middleware.ResponseMeta(c))
}

// Queue godoc
// @Summary Campaigns awaiting review
// @Tags Admin
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /admin/campaigns/review [get]
func (h *ModerationHandler) Queue(c *gin.Context) {
	campaigns, err := h.moderation.ReviewQueue(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaigns, nil)
}

// Review godoc
// @Summary Approve or reject a campaign
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.ReviewCampaignRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/campaigns/{id}/verify [put]
func (h *ModerationHandler) Review(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ReviewCampaignRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	campaign, err := h.moderation.Review(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// Verify godoc
// @Summary Set individual verification checks
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.VerifyCampaignRequest true "Checks"
// @Success 200 {object} response.Envelope
// @Router /campaigns/{id}/verify [put]
func (h *ModerationHandler) Verify(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.VerifyCampaignRequest
	if !bindJSON(c, &req, "invalid verification payload") {
		return
	}
	campaign, err := h.moderation.Verify(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// Flag godoc
// @Summary Flag a campaign
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.FlagRequest true "Flag"
// @Success 201 {object} response.Envelope
// @Router /admin/campaigns/{id}/flags [post]
func (h *ModerationHandler) Flag(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.FlagRequest
	if !bindJSON(c, &req, "invalid flag payload") {
		return
	}
	flag, err := h.moderation.FlagCampaign(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, flag)
}

// ResolveFlag godoc
// @Summary Resolve a campaign flag
// @Tags Admin
// @Param id path string true "Campaign ID"
// @Param flagId path string true "Flag ID"
// @Success 204
// @Router /admin/campaigns/{id}/flags/{flagId}/resolve [patch]
func (h *ModerationHandler) ResolveFlag(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.moderation.ResolveCampaignFlag(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("flagId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
