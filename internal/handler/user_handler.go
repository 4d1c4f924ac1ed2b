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

type userService interface {
	List(ctx context.Context, query dto.UserListQuery) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, actorID, id string, req dto.AdminUpdateUserRequest) (*models.User, error)
	SetSuspended(ctx context.Context, actorID, id string, req dto.SuspendUserRequest) (*models.User, error)
	Flag(ctx context.Context, actorID, id string, req dto.FlagRequest) (*models.Flag, error)
}

// UserHandler exposes admin user management endpoints.
type UserHandler struct {
	users userService
}

// NewUserHandler constructs the handler.
func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Param role query string false "student, donor or admin"
// @Param search query string false "Search name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var query dto.UserListQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	users, pagination, err := h.users.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get user with flags
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Update godoc
// @Summary Update role or verification
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.AdminUpdateUserRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.AdminUpdateUserRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	user, err := h.users.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Suspend godoc
// @Summary Suspend or restore a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.SuspendUserRequest true "Suspension"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/suspend [post]
func (h *UserHandler) Suspend(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.SuspendUserRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	user, err := h.users.SetSuspended(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Flag godoc
// @Summary Flag a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.FlagRequest true "Flag"
// @Success 201 {object} response.Envelope
// @Router /admin/users/{id}/flags [post]
func (h *UserHandler) Flag(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.FlagRequest
	if !bindJSON(c, &req, "invalid flag payload") {
		return
	}
	flag, err := h.users.Flag(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, flag)
}
