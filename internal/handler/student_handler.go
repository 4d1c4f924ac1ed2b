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

type studentProfileService interface {
	Submit(ctx context.Context, userID string, req dto.SubmitProfileRequest, files []service.UploadFile) (*models.StudentProfile, error)
	GetMine(ctx context.Context, userID string) (*models.StudentProfile, error)
	Decide(ctx context.Context, adminID, profileID string, req dto.DecideProfileRequest) (*models.StudentProfile, error)
	List(ctx context.Context, query dto.ProfileListQuery) ([]models.StudentProfile, *models.Pagination, error)
}

// StudentHandler exposes student profile endpoints.
type StudentHandler struct {
	profiles studentProfileService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(profiles studentProfileService) *StudentHandler {
	return &StudentHandler{profiles: profiles}
}

// GetProfile godoc
// @Summary Get own student profile
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/profile [get]
func (h *StudentHandler) GetProfile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	profile, err := h.profiles.GetMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// SubmitProfile godoc
// @Summary Create or update own student profile
// @Description Accepts JSON or multipart with studentIdCard, admissionLetter and feeStructure files
// @Tags Students
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/profile [post]
func (h *StudentHandler) SubmitProfile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.SubmitProfileRequest
	var files []service.UploadFile
	if isMultipart(c) {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
			return
		}
		uploads, release, err := formFiles(c, service.FieldStudentIDCard, service.FieldAdmissionLetter, service.FieldFeeStructure)
		defer release()
		if err != nil {
			response.Error(c, err)
			return
		}
		for _, field := range []string{service.FieldStudentIDCard, service.FieldAdmissionLetter, service.FieldFeeStructure} {
			files = append(files, uploads[field]...)
		}
	} else if !bindJSON(c, &req, "invalid profile payload") {
		return
	}

	profile, err := h.profiles.Submit(c.Request.Context(), claims.UserID, req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// List godoc
// @Summary List student profiles
// @Tags Students
// @Produce json
// @Param status query string false "pending, verified or rejected"
// @Param search query string false "Search by name, student id or school"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var query dto.ProfileListQuery
	if !bindQuery(c, &query, "invalid query") {
		return
	}
	profiles, pagination, err := h.profiles.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, pagination, middleware.ResponseMeta(c))
}

// Verify godoc
// @Summary Verify or reject a student profile
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body dto.DecideProfileRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/verify [patch]
func (h *StudentHandler) Verify(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.DecideProfileRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	profile, err := h.profiles.Decide(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
