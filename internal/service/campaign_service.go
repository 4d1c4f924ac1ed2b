package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/repository"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

// Per-request upload limits for campaign submissions.
const (
	MaxCampaignImages    = 5
	MaxCampaignDocuments = 10
)

type campaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) error
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error)
	Update(ctx context.Context, c *models.Campaign) error
	History(ctx context.Context, campaignID string) ([]models.VerificationHistoryEntry, error)
	CreateUpdate(ctx context.Context, u *models.CampaignUpdate) error
	ListUpdates(ctx context.Context, campaignID string) ([]models.CampaignUpdate, error)
}

type profileLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type flagStore interface {
	Create(ctx context.Context, f *models.Flag) error
	Resolve(ctx context.Context, subject models.FlagSubject, subjectID, flagID, adminID string) error
	ListForSubject(ctx context.Context, subject models.FlagSubject, subjectID string) ([]models.Flag, error)
}

type withdrawalCreator interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
}

// CampaignUploads are the files attached to a campaign submission.
type CampaignUploads struct {
	Images         []UploadFile
	Documents      []UploadFile
	StudentIDImage *UploadFile
}

func (u CampaignUploads) count() int {
	n := len(u.Images) + len(u.Documents)
	if u.StudentIDImage != nil {
		n++
	}
	return n
}

// CampaignService implements the student side of the campaign lifecycle and the public reads.
type CampaignService struct {
	repo        campaignRepository
	users       userReader
	profiles    profileLookup
	flags       flagStore
	withdrawals withdrawalCreator
	uploads     fileUploader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// CampaignServiceDeps groups the collaborators of CampaignService.
type CampaignServiceDeps struct {
	Campaigns   campaignRepository
	Users       userReader
	Profiles    profileLookup
	Flags       flagStore
	Withdrawals withdrawalCreator
	Uploads     fileUploader
	Cache       *CacheService
}

// NewCampaignService constructs the service.
func NewCampaignService(deps CampaignServiceDeps, validate *validator.Validate, logger *zap.Logger) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CampaignService{
		repo:        deps.Campaigns,
		users:       deps.Users,
		profiles:    deps.Profiles,
		flags:       deps.Flags,
		withdrawals: deps.Withdrawals,
		uploads:     deps.Uploads,
		cache:       deps.Cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Create submits a campaign for review. Only a non-suspended student with a verified profile may
// create one; uploaded files are removed again if the insert fails.
func (s *CampaignService) Create(ctx context.Context, ownerID string, req dto.CreateCampaignRequest, files CampaignUploads) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid campaign payload")
	}
	deadline, ok := parseDate(req.Deadline)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be an RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if !deadline.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be in the future")
	}
	if len(files.Images) > MaxCampaignImages {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d images are allowed", MaxCampaignImages))
	}
	if len(files.Documents) > MaxCampaignDocuments {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d documents are allowed", MaxCampaignDocuments))
	}

	if err := s.ensureCanCreate(ctx, ownerID); err != nil {
		return nil, err
	}

	var images, documents []StoredFile
	if files.count() > 0 {
		if s.uploads == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "upload storage not configured")
		}
		docUploads := append([]UploadFile(nil), files.Documents...)
		if files.StudentIDImage != nil {
			docUploads = append(docUploads, *files.StudentIDImage)
		}
		if err := s.uploads.ValidateAll(append(append([]UploadFile(nil), files.Images...), docUploads...)); err != nil {
			return nil, err
		}
		var err error
		if images, err = s.uploads.StoreAll(ctx, "campaigns/"+ownerID+"/images", files.Images); err != nil {
			return nil, err
		}
		if documents, err = s.uploads.StoreAll(ctx, "campaigns/"+ownerID+"/documents", docUploads); err != nil {
			s.uploads.Cleanup(ctx, images)
			return nil, err
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	campaign := &models.Campaign{
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		TargetAmount: req.TargetAmount,
		Currency:     currency,
		Category:     models.CampaignCategory(req.Category),
		Deadline:     deadline,
		Status:       models.CampaignUnderReview,
		InstitutionDetails: models.InstitutionDetails{
			InstitutionName: req.InstitutionName,
			StudentID:       req.StudentID,
			AcademicPeriod:  req.AcademicPeriod,
		},
		FeeStructure: models.FeeStructure{TotalFees: req.TotalFees, AmountPaid: req.AmountPaid},
		PaymentInstructions: models.PaymentInstructions{
			Instructions:    req.Instructions,
			PaymentVerified: req.PaymentVerified,
		},
		VerificationStatus: models.VerificationStatus{OverallStatus: models.VerificationPending},
	}
	uploadedAt := s.now().UTC()
	for _, img := range images {
		campaign.Images = append(campaign.Images, models.CampaignImage{URL: img.URL, PublicID: img.Key})
	}
	for _, doc := range documents {
		docType := InferDocumentType(doc.Filename)
		if files.StudentIDImage != nil && doc.Field == files.StudentIDImage.Field {
			docType = models.DocumentStudentID
		}
		campaign.Documents = append(campaign.Documents, models.VerificationDocument{
			DocumentType:       docType,
			FileName:           doc.Filename,
			FileURL:            doc.URL,
			PublicID:           doc.Key,
			UploadedAt:         uploadedAt,
			VerificationStatus: string(models.VerificationPending),
		})
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		if s.uploads != nil {
			s.uploads.Cleanup(ctx, append(images, documents...))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}
	s.logger.Info("campaign submitted", zap.String("campaign_id", campaign.ID), zap.String("owner_id", ownerID))
	return campaign, nil
}

func (s *CampaignService) ensureCanCreate(ctx context.Context, ownerID string) error {
	user, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "only students can create campaigns")
	}
	if user.IsSuspended {
		return appErrors.Clone(appErrors.ErrForbidden, "suspended accounts cannot create campaigns")
	}
	profile, err := s.profiles.FindByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "a verified student profile is required to create campaigns")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	if profile.Status != models.ProfileVerified {
		return appErrors.Clone(appErrors.ErrForbidden, "a verified student profile is required to create campaigns")
	}
	return nil
}

// InferDocumentType classifies a verification document from its file name.
func InferDocumentType(filename string) models.DocumentType {
	name := strings.ToLower(filename)
	switch {
	case containsAny(name, "fee", "invoice", "statement"):
		return models.DocumentFeeStatement
	case containsAny(name, "student", "id", "card"):
		return models.DocumentStudentID
	case containsAny(name, "admission", "enrollment", "acceptance"):
		return models.DocumentAdmissionLetter
	default:
		return models.DocumentOther
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// List returns the public listing: only active campaigns whose verification is complete.
func (s *CampaignService) List(ctx context.Context, query dto.CampaignListQuery) (*models.CampaignPage, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid query")
	}
	if query.MinAmount != nil && query.MaxAmount != nil && *query.MinAmount > *query.MaxAmount {
		return nil, appErrors.Clone(appErrors.ErrValidation, "minAmount must not exceed maxAmount")
	}
	page, limit := pageBounds(query.Page, query.Limit)
	filter := models.CampaignFilter{
		Search:     strings.TrimSpace(query.Search),
		School:     strings.TrimSpace(query.School),
		MinAmount:  query.MinAmount,
		MaxAmount:  query.MaxAmount,
		PublicOnly: true,
		Sort:       query.Sort,
		Page:       page,
		PageSize:   limit,
	}
	if query.Category != "" {
		category := models.CampaignCategory(query.Category)
		filter.Category = &category
	}

	key := cacheCampaignList + listCacheKey(filter)
	var cached models.CampaignPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	if campaigns == nil {
		campaigns = []models.Campaign{}
	}
	result := &models.CampaignPage{
		Campaigns:   campaigns,
		TotalPages:  models.NewPagination(page, limit, total).TotalPages,
		CurrentPage: page,
		Total:       total,
	}
	_ = s.cache.Set(ctx, key, result, 0)
	return result, nil
}

func listCacheKey(f models.CampaignFilter) string {
	category := ""
	if f.Category != nil {
		category = string(*f.Category)
	}
	lo, hi := "", ""
	if f.MinAmount != nil {
		lo = fmt.Sprintf("%g", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		hi = fmt.Sprintf("%g", *f.MaxAmount)
	}
	return strings.ToLower(fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%d", category, f.Search, f.School, lo, hi, f.Sort, f.Page, f.PageSize))
}

// Get returns a campaign. Campaigns that are not public are visible to their owner and admins
// only; moderation history and flags are attached for those viewers.
func (s *CampaignService) Get(ctx context.Context, id string, viewer *models.JWTClaims) (*models.Campaign, error) {
	privileged := func(c *models.Campaign) bool {
		return viewer != nil && (viewer.Role == models.RoleAdmin || viewer.UserID == c.OwnerID)
	}

	var campaign *models.Campaign
	var cached models.Campaign
	if hit, _ := s.cache.Get(ctx, cacheCampaignDetail+id, &cached); hit {
		campaign = &cached
	} else {
		loaded, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		updates, err := s.repo.ListUpdates(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign updates")
		}
		loaded.Updates = updates
		campaign = loaded
		if campaign.IsPublic() {
			_ = s.cache.Set(ctx, cacheCampaignDetail+id, campaign, 0)
		}
	}

	if !campaign.IsPublic() && !privileged(campaign) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
	}
	if privileged(campaign) {
		history, err := s.repo.History(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification history")
		}
		campaign.History = history
		if viewer.Role == models.RoleAdmin && s.flags != nil {
			flags, err := s.flags.ListForSubject(ctx, models.FlagSubjectCampaign, id)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign flags")
			}
			campaign.Flags = flags
		}
	}
	return campaign, nil
}

// Mine returns the campaigns owned by the caller in every state.
func (s *CampaignService) Mine(ctx context.Context, ownerID string, page, limit int) ([]models.Campaign, *models.Pagination, error) {
	page, limit = pageBounds(page, limit)
	campaigns, total, err := s.repo.List(ctx, models.CampaignFilter{OwnerID: ownerID, Page: page, PageSize: limit})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	return campaigns, paginate(page, limit, total), nil
}

// Update applies the owner-editable fields. The outstanding balance is recomputed on save.
func (s *CampaignService) Update(ctx context.Context, ownerID, id string, req dto.UpdateCampaignRequest) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid campaign payload")
	}
	var deadline time.Time
	if req.Deadline != nil {
		parsed, ok := parseDate(*req.Deadline)
		if !ok || !parsed.After(s.now()) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be a future RFC 3339 timestamp or YYYY-MM-DD date")
		}
		deadline = parsed
	}

	campaign, err := s.withVersionRetry(ctx, id, func(c *models.Campaign) error {
		if c.OwnerID != ownerID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the owner can edit this campaign")
		}
		if c.Status.Terminal() {
			return appErrors.Clone(appErrors.ErrValidation, "campaign can no longer be edited")
		}
		if req.Title != nil {
			c.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			c.Description = strings.TrimSpace(*req.Description)
		}
		if req.TargetAmount != nil {
			c.TargetAmount = *req.TargetAmount
		}
		if req.Category != nil {
			c.Category = models.CampaignCategory(*req.Category)
		}
		if req.Deadline != nil {
			c.Deadline = deadline
		}
		if req.FeeStructure != nil {
			c.FeeStructure = models.FeeStructure{TotalFees: req.FeeStructure.TotalFees, AmountPaid: req.FeeStructure.AmountPaid}
		}
		if req.PaymentInstructions != nil {
			c.PaymentInstructions = *req.PaymentInstructions
		}
		return nil
	}, s.repo.Update)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return campaign, nil
}

// PostUpdate publishes an owner progress post on a campaign.
func (s *CampaignService) PostUpdate(ctx context.Context, ownerID, id string, req dto.CampaignUpdateRequest) (*models.CampaignUpdate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update payload")
	}
	campaign, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can post updates")
	}
	update := &models.CampaignUpdate{CampaignID: id, AuthorID: ownerID, Title: req.Title, Content: req.Content}
	if err := s.repo.CreateUpdate(ctx, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to post update")
	}
	_ = s.cache.Invalidate(ctx, cacheCampaignDetail+id)
	return update, nil
}

// RequestWithdrawal asks for raised funds to be paid to the institution.
func (s *CampaignService) RequestWithdrawal(ctx context.Context, ownerID, id string, req dto.WithdrawalCreateRequest) (*models.WithdrawalRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid withdrawal payload")
	}
	campaign, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can request withdrawals")
	}
	if campaign.Status != models.CampaignActive && campaign.Status != models.CampaignCompleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "withdrawals require an active or completed campaign")
	}
	w := &models.WithdrawalRequest{
		CampaignID:                id,
		RequestedBy:               ownerID,
		Amount:                    req.Amount,
		Purpose:                   req.Purpose,
		InstitutionPaymentDetails: req.InstitutionPaymentDetails,
	}
	if err := s.withdrawals.Create(ctx, w); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientFunds):
			return nil, appErrors.Clone(appErrors.ErrValidation, "amount exceeds the available balance")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create withdrawal request")
	}
	w.CampaignTitle = campaign.Title
	return w, nil
}

func (s *CampaignService) load(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateCampaignLookup(err)
	}
	return campaign, nil
}

// withVersionRetry reloads the campaign and reapplies mutate whenever write loses a version race.
func (s *CampaignService) withVersionRetry(ctx context.Context, id string, mutate func(*models.Campaign) error, write func(context.Context, *models.Campaign) error) (*models.Campaign, error) {
	return retryOnVersionConflict(ctx, func() (*models.Campaign, error) {
		return s.load(ctx, id)
	}, mutate, write, s.logger)
}

func (s *CampaignService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cacheCampaignPattern)
}

// versionRetryAttempts bounds how often a lost optimistic-concurrency race is retried.
const versionRetryAttempts = 3

func retryOnVersionConflict(ctx context.Context, load func() (*models.Campaign, error), mutate func(*models.Campaign) error, write func(context.Context, *models.Campaign) error, logger *zap.Logger) (*models.Campaign, error) {
	for attempt := 1; attempt <= versionRetryAttempts; attempt++ {
		campaign, err := load()
		if err != nil {
			return nil, err
		}
		if err := mutate(campaign); err != nil {
			return nil, err
		}
		err = write(ctx, campaign)
		if err == nil {
			campaign.Normalize()
			return campaign, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save campaign")
		}
		logger.Debug("campaign version conflict", zap.String("campaign_id", campaign.ID), zap.Int("attempt", attempt))
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "campaign was modified concurrently, please retry")
}
