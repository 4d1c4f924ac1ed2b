package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type moderationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error)
	ApplyModeration(ctx context.Context, c *models.Campaign, entry *models.VerificationHistoryEntry, evt *models.OutboxEvent) error
	ReviewQueue(ctx context.Context, limit int) ([]models.Campaign, error)
}

// ModerationService implements the admin side of the campaign state machine.
type ModerationService struct {
	repo      moderationRepository
	flags     flagStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewModerationService constructs the service.
func NewModerationService(repo moderationRepository, flags flagStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ModerationService{repo: repo, flags: flags, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Review approves or rejects a campaign. Approve sets every check and activates the campaign;
// reject cancels it. Both append a history entry.
func (s *ModerationService) Review(ctx context.Context, adminID, campaignID string, req dto.ReviewCampaignRequest) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid review payload")
	}
	campaign, err := s.moderate(ctx, campaignID, req.Action, adminID, req.Notes, models.EventCampaignReviewed, func(c *models.Campaign) error {
		if c.Status.Terminal() {
			return appErrors.Clone(appErrors.ErrValidation, "campaign is already "+string(c.Status))
		}
		switch req.Action {
		case models.ReviewApprove:
			c.StudentVerified = true
			c.DocumentsVerified = true
			c.InstitutionVerified = true
			c.FinancialsVerified = true
			c.OverallStatus = models.VerificationVerified
			c.Status = models.CampaignActive
		case models.ReviewReject:
			c.OverallStatus = models.VerificationRejected
			c.Status = models.CampaignCancelled
		default:
			return appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCampaignReview(string(req.Action))
	return campaign, nil
}

// Verify sets a subset of the four checks. The overall status is recomputed from all four and the
// lifecycle status never changes.
func (s *ModerationService) Verify(ctx context.Context, adminID, campaignID string, req dto.VerifyCampaignRequest) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid verification payload")
	}
	if req.VerificationFlags.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one verification flag is required")
	}
	campaign, err := s.moderate(ctx, campaignID, models.ReviewVerify, adminID, req.Notes, models.EventCampaignVerification, func(c *models.Campaign) error {
		if c.Status.Terminal() {
			return appErrors.Clone(appErrors.ErrValidation, "campaign is already "+string(c.Status))
		}
		req.VerificationFlags.Apply(&c.VerificationStatus)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCampaignReview(string(models.ReviewVerify))
	return campaign, nil
}

func (s *ModerationService) moderate(ctx context.Context, campaignID string, action models.ReviewAction, adminID, notes, eventType string, mutate func(*models.Campaign) error) (*models.Campaign, error) {
	load := func() (*models.Campaign, error) {
		c, err := s.repo.FindByID(ctx, campaignID)
		if err != nil {
			return nil, translateCampaignLookup(err)
		}
		return c, nil
	}
	write := func(ctx context.Context, c *models.Campaign) error {
		at := s.now().UTC()
		if notes != "" {
			c.VerificationNotes = notes
		}
		if c.OverallStatus == models.VerificationVerified {
			c.VerifiedAt = &at
			c.VerifiedBy = &adminID
		}
		entry := models.NewHistoryEntry(c, action, adminID, notes, at)
		evt, err := models.NewOutboxEvent(models.AggregateCampaign, c.ID, eventType, map[string]interface{}{
			"campaignId":    c.ID,
			"action":        action,
			"adminId":       adminID,
			"status":        c.Status,
			"overallStatus": c.OverallStatus,
			"notes":         notes,
			"at":            at,
		})
		if err != nil {
			return err
		}
		if err := s.repo.ApplyModeration(ctx, c, &entry, evt); err != nil {
			return err
		}
		c.History = append(c.History, entry)
		return nil
	}

	campaign, err := retryOnVersionConflict(ctx, load, mutate, write, s.logger)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Invalidate(ctx, cacheCampaignPattern)
	_ = s.cache.Invalidate(ctx, cacheDashboardKey)
	s.logger.Info("campaign moderated",
		zap.String("campaign_id", campaign.ID),
		zap.String("action", string(action)),
		zap.String("status", string(campaign.Status)),
		zap.String("overall_status", string(campaign.OverallStatus)),
		zap.String("admin_id", adminID),
	)
	return campaign, nil
}

// ReviewQueue lists campaigns awaiting a decision, oldest first.
func (s *ModerationService) ReviewQueue(ctx context.Context, limit int) ([]models.Campaign, error) {
	campaigns, err := s.repo.ReviewQueue(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review queue")
	}
	return campaigns, nil
}

// ListAll lists campaigns in every state for admins.
func (s *ModerationService) ListAll(ctx context.Context, query dto.AdminCampaignQuery) ([]models.Campaign, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Validation(err, "invalid query")
	}
	page, limit := pageBounds(query.Page, query.Limit)
	filter := models.CampaignFilter{Search: query.Search, Page: page, PageSize: limit}
	if query.Status != "" {
		status := models.CampaignStatus(query.Status)
		filter.Status = &status
	}
	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	return campaigns, paginate(page, limit, total), nil
}

// FlagCampaign raises a moderation flag on a campaign.
func (s *ModerationService) FlagCampaign(ctx context.Context, adminID, campaignID string, req dto.FlagRequest) (*models.Flag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid flag payload")
	}
	if _, err := s.repo.FindByID(ctx, campaignID); err != nil {
		return nil, translateCampaignLookup(err)
	}
	flag := &models.Flag{
		SubjectType: models.FlagSubjectCampaign,
		SubjectID:   campaignID,
		Reason:      req.Reason,
		Severity:    req.Severity,
		FlaggedBy:   adminID,
	}
	if err := s.flags.Create(ctx, flag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flag campaign")
	}
	return flag, nil
}

// ResolveCampaignFlag marks a campaign flag as resolved.
func (s *ModerationService) ResolveCampaignFlag(ctx context.Context, adminID, campaignID, flagID string) error {
	if err := s.flags.Resolve(ctx, models.FlagSubjectCampaign, campaignID, flagID, adminID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "flag not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve flag")
	}
	return nil
}
