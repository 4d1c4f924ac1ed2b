package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/pkg/response"
)

type withdrawalService interface {
	List(ctx context.Context, query dto.WithdrawalListQuery) ([]models.WithdrawalRequest, *models.Pagination, error)
	Process(ctx context.Context, adminID, id string, req dto.ProcessWithdrawalRequest) (*models.WithdrawalRequest, error)
}

// WithdrawalHandler exposes admin payout review endpoints.
type WithdrawalHandler struct {
	withdrawals withdrawalService
}

// NewWithdrawalHandler constructs the handler.
func NewWithdrawalHandler(withdrawals withdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// List godoc
// @Summary List withdrawal requests
// @Tags Admin
// @Produce json
// @Param status query string false "pending, approved, rejected or processed"
// @Success 200 {object} response.Envelope
// @Router /admin/withdrawals [get]
func (h *WithdrawalHandler) List(c *gin.Context) {
	var query dto.WithdrawalListQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	requests, pagination, err := h.withdrawals.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Process godoc
// @Summary Decide a withdrawal request
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Param payload body dto.ProcessWithdrawalRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/withdrawals/{id} [patch]
func (h *WithdrawalHandler) Process(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ProcessWithdrawalRequest
	if !bindJSON(c, &req, "invalid withdrawal decision") {
		return
	}
	w, err := h.withdrawals.Process(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, w, nil)
}
