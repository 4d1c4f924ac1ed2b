package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/handler"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type statsStub struct{}

func (statsStub) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{TotalCampaigns: 7}, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Handlers{
		Dashboard: handler.NewDashboardHandler(statsStub{}),
		Metrics:   handler.NewMetricsHandler(nil, nil),
	}, Options{
		APIPrefix: "/api",
		Tokens: tokenTable{
			"admin":   {UserID: "a1", Role: models.RoleAdmin},
			"student": {UserID: "s1", Role: models.RoleStudent},
		},
	})
}

func TestRouterRegistersRoutes(t *testing.T) {
	r := newTestRouter()
	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/register",
		"GET /api/campaigns",
		"GET /api/campaigns/verified",
		"PUT /api/campaigns/:id/verify",
		"PUT /api/admin/campaigns/:id/verify",
		"PATCH /api/students/:id/verify",
		"POST /api/donations",
		"POST /api/payments/webhook",
		"GET /api/admin/reports/download/:token",
		"GET /health",
		"GET /metrics",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
	assert.False(t, registered["GET /docs/*any"])
}

func TestRouterAdminGuard(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		token  string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"student", http.StatusForbidden},
		{"admin", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, tc.status, w.Code, "token %q", tc.token)
	}
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
