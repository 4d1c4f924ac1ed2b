package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/middleware/requestid"
)

type staticValidator map[string]*models.JWTClaims

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type auditRecorder struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

var tokens = staticValidator{
	"admin-token":   {UserID: "admin-1", Role: models.RoleAdmin},
	"student-token": {UserID: "s1", Role: models.RoleStudent},
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTAndRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", JWT(tokens), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"bad token", "nope", http.StatusUnauthorized},
		{"wrong role", "student-token", http.StatusForbidden},
		{"admin", "admin-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/admin", tc.token)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/campaigns/:id", OptionalJWT(tokens), func(c *gin.Context) {
		if claims := Claims(c); claims != nil {
			c.String(http.StatusOK, claims.UserID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	if body := serve(router, http.MethodGet, "/campaigns/c1", "garbage").Body.String(); body != "anonymous" {
		t.Fatalf("unexpected body for invalid token: %s", body)
	}
	if body := serve(router, http.MethodGet, "/campaigns/c1", "student-token").Body.String(); body != "s1" {
		t.Fatalf("unexpected body for valid token: %s", body)
	}
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditRecorder{}
	var writer service.AuditWriter = recorder
	router := gin.New()
	router.Use(JWT(tokens))
	router.PATCH("/users/:id", Audit(writer, nil, models.AuditActionUserUpdate, "user"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.PATCH("/broken/:id", Audit(writer, nil, models.AuditActionUserUpdate, "user"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	serve(router, http.MethodPatch, "/users/d1", "admin-token")
	serve(router, http.MethodPatch, "/broken/d1", "admin-token")

	if len(recorder.logs) != 1 {
		t.Fatalf("expected one audit log, got %d", len(recorder.logs))
	}
	entry := recorder.logs[0]
	if entry.ResourceID == nil || *entry.ResourceID != "d1" {
		t.Fatalf("unexpected resource id: %v", entry.ResourceID)
	}
	if entry.UserID == nil || *entry.UserID != "admin-1" {
		t.Fatalf("unexpected actor: %v", entry.UserID)
	}
}

func TestAuditFailureKeepsResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/x/:id", Audit(&auditRecorder{err: errors.New("mongo down")}, nil, "ACTION", "thing"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	if rec := serve(router, http.MethodPost, "/x/1", ""); rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestid.Middleware(), WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		meta = ResponseMeta(c)
		c.Status(http.StatusNoContent)
	})

	serve(router, http.MethodGet, "/", "")
	if meta["requestId"] == "" || meta["requestId"] == nil {
		t.Fatalf("expected request id in meta: %v", meta)
	}
	if _, ok := meta["processingTimeMs"]; !ok {
		t.Fatalf("expected processing time in meta: %v", meta)
	}
}
