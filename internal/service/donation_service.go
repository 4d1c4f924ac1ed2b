package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/repository"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type donationRepository interface {
	Create(ctx context.Context, d *models.Donation, evt *models.OutboxEvent) error
	FindByID(ctx context.Context, id string) (*models.Donation, error)
	UpdateStatus(ctx context.Context, id string, next models.DonationStatus, reference string, buildEvent func(models.DonationStatusChange) (*models.OutboxEvent, error)) (*models.DonationStatusChange, error)
	List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error)
	StatsForDonor(ctx context.Context, donorID string) (*models.DonationStats, error)
}

type campaignReader interface {
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
}

type donorPreferenceReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Donor, error)
}

// DonationService records donations and keeps campaign totals consistent with their status.
type DonationService struct {
	repo          donationRepository
	campaigns     campaignReader
	donors        donorPreferenceReader
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	webhookSecret []byte
}

// NewDonationService constructs the service. An empty webhookSecret disables payment confirmations.
func NewDonationService(repo donationRepository, campaigns campaignReader, donors donorPreferenceReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, webhookSecret string) *DonationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DonationService{
		repo:          repo,
		campaigns:     campaigns,
		donors:        donors,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		webhookSecret: []byte(webhookSecret),
	}
}

// Create records a donation. Manual donations complete immediately and credit the campaign in
// the same transaction; gateway donations stay pending until the provider confirms them.
func (s *DonationService) Create(ctx context.Context, donorID string, req dto.CreateDonationRequest) (*models.Donation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid donation payload")
	}
	campaign, err := s.campaigns.FindByID(ctx, req.CampaignID)
	if err != nil {
		return nil, translateCampaignLookup(err)
	}
	if !campaign.IsPublic() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "campaign is not accepting donations")
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentManual
	}
	anonymous := false
	if req.IsAnonymous != nil {
		anonymous = *req.IsAnonymous
	} else if s.donors != nil {
		if donor, err := s.donors.FindByUserID(ctx, donorID); err == nil {
			anonymous = donor.Preferences.AnonymousByDefault
		}
	}
	status := models.DonationCompleted
	if method.IsGateway() {
		status = models.DonationPending
	}

	donation := &models.Donation{
		CampaignID:    campaign.ID,
		DonorID:       donorID,
		Amount:        req.Amount,
		Currency:      campaign.Currency,
		PaymentMethod: method,
		Status:        status,
		Message:       strings.TrimSpace(req.Message),
		IsAnonymous:   anonymous,
		NetAmount:     req.Amount,
	}
	evt, err := models.NewOutboxEvent(models.AggregateDonation, campaign.ID, models.EventDonationRecorded, map[string]interface{}{
		"campaignId":    campaign.ID,
		"donorId":       donorID,
		"amount":        req.Amount,
		"currency":      campaign.Currency,
		"paymentMethod": method,
		"status":        status,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build donation event")
	}
	if err := s.repo.Create(ctx, donation, evt); err != nil {
		if errors.Is(err, repository.ErrNotFundable) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "campaign is not accepting donations")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record donation")
	}
	donation.CampaignTitle = campaign.Title

	s.metrics.RecordDonation(string(method), string(status), donation.Currency, donation.Amount, status == models.DonationCompleted)
	if status == models.DonationCompleted {
		s.invalidate(ctx)
	}
	s.logger.Info("donation recorded",
		zap.String("donation_id", donation.ID),
		zap.String("campaign_id", campaign.ID),
		zap.String("status", string(status)),
		zap.Float64("amount", donation.Amount),
	)
	return donation, nil
}

// UpdateStatus moves a donation between states and adjusts the campaign total accordingly.
func (s *DonationService) UpdateStatus(ctx context.Context, id string, req dto.UpdateDonationStatusRequest) (*models.Donation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid status payload")
	}
	return s.transition(ctx, id, req.Status, "")
}

func (s *DonationService) transition(ctx context.Context, id string, next models.DonationStatus, reference string) (*models.Donation, error) {
	change, err := s.repo.UpdateStatus(ctx, id, next, reference, func(c models.DonationStatusChange) (*models.OutboxEvent, error) {
		return models.NewOutboxEvent(models.AggregateDonation, c.Donation.CampaignID, models.EventDonationStatusChanged, map[string]interface{}{
			"donationId":     c.Donation.ID,
			"campaignId":     c.Donation.CampaignID,
			"previousStatus": c.PreviousStatus,
			"status":         c.Donation.Status,
			"totalDelta":     c.TotalDelta,
		})
	})
	if err != nil {
		switch {
		case isNoRows(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			return nil, appErrors.Clone(appErrors.ErrValidation, "donation cannot move to "+string(next))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update donation status")
	}
	d := change.Donation
	s.metrics.RecordDonation(string(d.PaymentMethod), string(d.Status), d.Currency, d.Amount, d.Status == models.DonationCompleted)
	if change.TotalDelta != 0 {
		s.invalidate(ctx)
	}
	s.logger.Info("donation status changed",
		zap.String("donation_id", d.ID),
		zap.String("from", string(change.PreviousStatus)),
		zap.String("to", string(d.Status)),
		zap.Float64("total_delta", change.TotalDelta),
	)
	return &d, nil
}

// ErrInvalidSignature is returned for webhook payloads whose signature does not verify.
var ErrInvalidSignature = appErrors.New("INVALID_SIGNATURE", http.StatusUnauthorized, "invalid webhook signature")

// SignPayload computes the hex HMAC-SHA256 of payload with secret.
func SignPayload(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ConfirmPayment applies a signed gateway callback. Repeated confirmations of the same outcome
// are accepted without changing anything.
func (s *DonationService) ConfirmPayment(ctx context.Context, payload []byte, signature string) (*models.Donation, error) {
	if len(s.webhookSecret) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "payment webhook is not configured")
	}
	expected := SignPayload(s.webhookSecret, payload)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return nil, ErrInvalidSignature
	}

	var req dto.PaymentWebhookRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid webhook body")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid webhook body")
	}
	next := models.DonationFailed
	if req.Status == "succeeded" {
		next = models.DonationCompleted
	}

	current, err := s.repo.FindByID(ctx, req.DonationID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	if current.Status == next {
		return current, nil
	}
	if !current.PaymentMethod.IsGateway() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "donation is not settled by a payment gateway")
	}
	return s.transition(ctx, req.DonationID, next, req.Reference)
}

// ListForCampaign returns completed donations for a campaign with anonymous donors masked.
func (s *DonationService) ListForCampaign(ctx context.Context, campaignID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error) {
	if _, err := s.campaigns.FindByID(ctx, campaignID); err != nil {
		return nil, nil, translateCampaignLookup(err)
	}
	page, limit := pageBounds(query.Page, query.Limit)
	completed := models.DonationCompleted
	donations, total, err := s.repo.List(ctx, models.DonationFilter{CampaignID: campaignID, Status: &completed, Page: page, PageSize: limit})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list donations")
	}
	masked := make([]models.Donation, 0, len(donations))
	for _, d := range donations {
		m := d.Masked()
		m.PaymentReference = nil
		masked = append(masked, m)
	}
	return masked, paginate(page, limit, total), nil
}

// Mine returns the caller's donations in every state.
func (s *DonationService) Mine(ctx context.Context, donorID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error) {
	page, limit := pageBounds(query.Page, query.Limit)
	donations, total, err := s.repo.List(ctx, models.DonationFilter{DonorID: donorID, Page: page, PageSize: limit})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list donations")
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	return donations, paginate(page, limit, total), nil
}

// Stats summarizes the caller's completed giving.
func (s *DonationService) Stats(ctx context.Context, donorID string) (*models.DonationStats, error) {
	stats, err := s.repo.StatsForDonor(ctx, donorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation stats")
	}
	return stats, nil
}

func (s *DonationService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cacheCampaignPattern)
	_ = s.cache.Invalidate(ctx, cacheDashboardKey)
}
