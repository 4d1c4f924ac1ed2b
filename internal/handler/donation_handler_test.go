package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/service"
)

type donationServiceFake struct {
	createdBy string
	created   dto.CreateDonationRequest
	payload   []byte
	signature string
	updated   dto.UpdateDonationStatusRequest
}

func (f *donationServiceFake) Create(ctx context.Context, donorID string, req dto.CreateDonationRequest) (*models.Donation, error) {
	f.createdBy = donorID
	f.created = req
	return &models.Donation{ID: "d1", CampaignID: req.CampaignID, Amount: req.Amount, Status: models.DonationCompleted}, nil
}

func (f *donationServiceFake) UpdateStatus(ctx context.Context, id string, req dto.UpdateDonationStatusRequest) (*models.Donation, error) {
	f.updated = req
	return &models.Donation{ID: id, Status: req.Status}, nil
}

func (f *donationServiceFake) ConfirmPayment(ctx context.Context, payload []byte, signature string) (*models.Donation, error) {
	f.payload = payload
	f.signature = signature
	if signature != service.SignPayload([]byte("secret"), payload) {
		return nil, service.ErrInvalidSignature
	}
	return &models.Donation{ID: "d1", Status: models.DonationCompleted}, nil
}

func (f *donationServiceFake) ListForCampaign(ctx context.Context, campaignID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error) {
	return []models.Donation{{ID: "d1", CampaignID: campaignID}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1, TotalPages: 1}, nil
}

func (f *donationServiceFake) Mine(ctx context.Context, donorID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error) {
	return []models.Donation{{ID: "d1", DonorID: donorID}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1, TotalPages: 1}, nil
}

func (f *donationServiceFake) Stats(ctx context.Context, donorID string) (*models.DonationStats, error) {
	return &models.DonationStats{}, nil
}

func TestDonationHandlerCreate(t *testing.T) {
	fake := &donationServiceFake{}
	h := NewDonationHandler(fake)
	body := mustJSON(t, dto.CreateDonationRequest{CampaignID: "c1", Amount: 50})
	c, w := newGinContext(http.MethodPost, "/donations", body)
	withClaims(c, "donor-1", models.RoleDonor)

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "donor-1", fake.createdBy)
	assert.Equal(t, 50.0, fake.created.Amount)
}

func TestDonationHandlerCreateBadJSON(t *testing.T) {
	h := NewDonationHandler(&donationServiceFake{})
	c, w := newGinContext(http.MethodPost, "/donations", []byte(`{"amount":`))
	withClaims(c, "donor-1", models.RoleDonor)

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDonationHandlerWebhookPassesRawBody(t *testing.T) {
	fake := &donationServiceFake{}
	h := NewDonationHandler(fake)
	body := []byte(`{"donationId":"d1","status":"succeeded"}`)

	c, w := newGinContext(http.MethodPost, "/payments/webhook", body)
	c.Request.Header.Set(SignatureHeader, service.SignPayload([]byte("secret"), body))
	h.Webhook(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, fake.payload)

	c, w = newGinContext(http.MethodPost, "/payments/webhook", body)
	c.Request.Header.Set(SignatureHeader, "deadbeef")
	h.Webhook(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDonationHandlerForCampaignPaginates(t *testing.T) {
	h := NewDonationHandler(&donationServiceFake{})
	c, w := newGinContext(http.MethodGet, "/donations/campaign/c1", nil)
	c.Params = gin.Params{{Key: "campaignId", Value: "c1"}}

	h.ForCampaign(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), env.Pagination["totalCount"])
}

func TestDonationHandlerUpdateStatus(t *testing.T) {
	fake := &donationServiceFake{}
	h := NewDonationHandler(fake)
	c, w := newGinContext(http.MethodPatch, "/admin/donations/d1/status", []byte(`{"status":"refunded"}`))
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	h.UpdateStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DonationRefunded, fake.updated.Status)
}
