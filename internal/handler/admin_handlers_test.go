package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type userServiceFake struct {
	actor     string
	suspended dto.SuspendUserRequest
}

func (f *userServiceFake) List(ctx context.Context, query dto.UserListQuery) ([]models.User, *models.Pagination, error) {
	return []models.User{{ID: "u1", Role: models.UserRole(query.Role)}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1, TotalPages: 1}, nil
}

func (f *userServiceFake) Get(ctx context.Context, id string) (*models.User, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func (f *userServiceFake) Update(ctx context.Context, actorID, id string, req dto.AdminUpdateUserRequest) (*models.User, error) {
	if actorID == id {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admins cannot change their own role")
	}
	return &models.User{ID: id, Role: *req.Role}, nil
}

func (f *userServiceFake) SetSuspended(ctx context.Context, actorID, id string, req dto.SuspendUserRequest) (*models.User, error) {
	f.actor = actorID
	f.suspended = req
	return &models.User{ID: id, IsSuspended: req.Suspended}, nil
}

func (f *userServiceFake) Flag(ctx context.Context, actorID, id string, req dto.FlagRequest) (*models.Flag, error) {
	return &models.Flag{ID: "f1", SubjectType: models.FlagSubjectUser, SubjectID: id, Reason: req.Reason}, nil
}

type withdrawalServiceFake struct {
	processed dto.ProcessWithdrawalRequest
	err       error
}

func (f *withdrawalServiceFake) List(ctx context.Context, query dto.WithdrawalListQuery) ([]models.WithdrawalRequest, *models.Pagination, error) {
	return []models.WithdrawalRequest{{ID: "w1", Status: models.WithdrawalStatus(query.Status)}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (f *withdrawalServiceFake) Process(ctx context.Context, adminID, id string, req dto.ProcessWithdrawalRequest) (*models.WithdrawalRequest, error) {
	f.processed = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.WithdrawalRequest{ID: id, Status: req.Status}, nil
}

type dashboardServiceFake struct {
	err error
}

func (f dashboardServiceFake) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.DashboardStats{TotalCampaigns: 3, PendingCampaigns: 1}, nil
}

func TestUserHandlerListAndGet(t *testing.T) {
	h := NewUserHandler(&userServiceFake{})

	c, w := newGinContext(http.MethodGet, "/admin/users?role=donor", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"donor"`)

	c, w = newGinContext(http.MethodGet, "/admin/users/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandlerUpdateSelfDemotion(t *testing.T) {
	h := NewUserHandler(&userServiceFake{})
	c, w := newGinContext(http.MethodPatch, "/admin/users/admin-1", []byte(`{"role":"donor"}`))
	c.Params = gin.Params{{Key: "id", Value: "admin-1"}}
	withClaims(c, "admin-1", models.RoleAdmin)

	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandlerSuspendAndFlag(t *testing.T) {
	fake := &userServiceFake{}
	h := NewUserHandler(fake)

	c, w := newGinContext(http.MethodPost, "/admin/users/u1/suspend", []byte(`{"suspended":true,"reason":"fraud"}`))
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	withClaims(c, "admin-1", models.RoleAdmin)
	h.Suspend(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", fake.actor)
	assert.True(t, fake.suspended.Suspended)

	c, w = newGinContext(http.MethodPost, "/admin/users/u1/flags", []byte(`{"reason":"spam links"}`))
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	withClaims(c, "admin-1", models.RoleAdmin)
	h.Flag(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestWithdrawalHandlerProcess(t *testing.T) {
	fake := &withdrawalServiceFake{}
	h := NewWithdrawalHandler(fake)

	c, w := newGinContext(http.MethodPatch, "/admin/withdrawals/w1", []byte(`{"status":"approved"}`))
	c.Params = gin.Params{{Key: "id", Value: "w1"}}
	withClaims(c, "admin-1", models.RoleAdmin)
	h.Process(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.WithdrawalApproved, fake.processed.Status)

	fake.err = appErrors.Clone(appErrors.ErrConflict, "withdrawal already decided")
	c, w = newGinContext(http.MethodPatch, "/admin/withdrawals/w1", []byte(`{"status":"rejected"}`))
	c.Params = gin.Params{{Key: "id", Value: "w1"}}
	withClaims(c, "admin-1", models.RoleAdmin)
	h.Process(c)
	assert.Equal(t, appErrors.ErrConflict.Status, w.Code)
}

func TestWithdrawalHandlerList(t *testing.T) {
	h := NewWithdrawalHandler(&withdrawalServiceFake{})
	c, w := newGinContext(http.MethodGet, "/admin/withdrawals?status=pending", nil)

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestDashboardHandlerAdmin(t *testing.T) {
	h := NewDashboardHandler(dashboardServiceFake{})
	c, w := newGinContext(http.MethodGet, "/admin/dashboard", nil)

	h.Admin(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalCampaigns":3`)

	h = NewDashboardHandler(dashboardServiceFake{err: errors.New("boom")})
	c, w = newGinContext(http.MethodGet, "/admin/dashboard", nil)
	h.Admin(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
}
