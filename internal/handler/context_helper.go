package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/internal/middleware"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// requireClaims writes 401 and returns false when the request is unauthenticated.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msg))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// formFiles opens the multipart files under fields. A non-multipart request yields no files. The
// returned release func closes every opened file.
func formFiles(c *gin.Context, fields ...string) (map[string][]service.UploadFile, func(), error) {
	out := make(map[string][]service.UploadFile, len(fields))
	var closers []io.Closer
	release := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return out, release, nil
		}
		return nil, release, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form")
	}
	for _, field := range fields {
		for _, header := range form.File[field] {
			file, err := header.Open()
			if err != nil {
				release()
				return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload "+header.Filename)
			}
			closers = append(closers, file)
			upload, err := service.NewUploadFile(field, header.Filename, header.Size, file)
			if err != nil {
				release()
				return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload "+header.Filename)
			}
			out[field] = append(out[field], upload)
		}
	}
	return out, release, nil
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == "multipart/form-data"
}
