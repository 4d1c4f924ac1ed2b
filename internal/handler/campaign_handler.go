package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/middleware"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/response"
)

// Multipart field names of a campaign submission.
const (
	formCampaignImages    = "images"
	formCampaignDocuments = "documents"
	formStudentIDImage    = "studentIdImage"
)

type campaignService interface {
	Create(ctx context.Context, ownerID string, req dto.CreateCampaignRequest, files service.CampaignUploads) (*models.Campaign, error)
	List(ctx context.Context, query dto.CampaignListQuery) (*models.CampaignPage, error)
	Get(ctx context.Context, id string, viewer *models.JWTClaims) (*models.Campaign, error)
	Mine(ctx context.Context, ownerID string, page, limit int) ([]models.Campaign, *models.Pagination, error)
	Update(ctx context.Context, ownerID, id string, req dto.UpdateCampaignRequest) (*models.Campaign, error)
	PostUpdate(ctx context.Context, ownerID, id string, req dto.CampaignUpdateRequest) (*models.CampaignUpdate, error)
	RequestWithdrawal(ctx context.Context, ownerID, id string, req dto.WithdrawalCreateRequest) (*models.WithdrawalRequest, error)
}

// CampaignHandler exposes campaign endpoints for students and the public.
type CampaignHandler struct {
	campaigns campaignService
}

// NewCampaignHandler constructs the handler.
func NewCampaignHandler(campaigns campaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// Create godoc
// @Summary Submit a campaign for review
// @Description Multipart form with up to 5 images, 10 documents and a studentIdImage
// @Tags Campaigns
// @Accept mpfd
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CreateCampaignRequest
	var files service.CampaignUploads
	if isMultipart(c) {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campaign payload"))
			return
		}
		uploads, release, err := formFiles(c, formCampaignImages, formCampaignDocuments, formStudentIDImage)
		defer release()
		if err != nil {
			response.Error(c, err)
			return
		}
		files.Images = uploads[formCampaignImages]
		files.Documents = uploads[formCampaignDocuments]
		if ids := uploads[formStudentIDImage]; len(ids) > 0 {
			if len(ids) > 1 {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "only one studentIdImage is allowed"))
				return
			}
			files.StudentIDImage = &ids[0]
		}
	} else if !bindJSON(c, &req, "invalid campaign payload") {
		return
	}

	campaign, err := h.campaigns.Create(c.Request.Context(), claims.UserID, req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campaign)
}

// List godoc
// @Summary List verified active campaigns
// @Tags Campaigns
// @Produce json
// @Param category query string false "Category"
// @Param search query string false "Search title and description"
// @Param school query string false "Institution name"
// @Param minAmount query number false "Minimum target"
// @Param maxAmount query number false "Maximum target"
// @Param sort query string false "newest, currentAmount, deadline or urgency"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	var query dto.CampaignListQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	page, err := h.campaigns.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Campaign detail
// @Description Unlisted campaigns are visible to their owner and admins only
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.campaigns.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// Mine godoc
// @Summary List own campaigns
// @Tags Campaigns
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /campaigns/user/my-campaigns [get]
func (h *CampaignHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	campaigns, pagination, err := h.campaigns.Mine(c.Request.Context(), claims.UserID, queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaigns, pagination)
}

// Update godoc
// @Summary Edit own campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.UpdateCampaignRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UpdateCampaignRequest
	if !bindJSON(c, &req, "invalid campaign payload") {
		return
	}
	campaign, err := h.campaigns.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// PostUpdate godoc
// @Summary Post a progress update
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.CampaignUpdateRequest true "Update"
// @Success 201 {object} response.Envelope
// @Router /campaigns/{id}/updates [post]
func (h *CampaignHandler) PostUpdate(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CampaignUpdateRequest
	if !bindJSON(c, &req, "invalid update payload") {
		return
	}
	update, err := h.campaigns.PostUpdate(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}

// RequestWithdrawal godoc
// @Summary Request a payout of raised funds
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.WithdrawalCreateRequest true "Withdrawal"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /campaigns/{id}/withdrawals [post]
func (h *CampaignHandler) RequestWithdrawal(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.WithdrawalCreateRequest
	if !bindJSON(c, &req, "invalid withdrawal payload") {
		return
	}
	withdrawal, err := h.campaigns.RequestWithdrawal(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, withdrawal)
}
