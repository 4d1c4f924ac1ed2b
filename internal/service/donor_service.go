package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type donorRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Donor, error)
	Upsert(ctx context.Context, donor *models.Donor) error
	SupportedCampaigns(ctx context.Context, userID string) ([]models.SupportedCampaign, error)
}

type donorUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

type donationLister interface {
	List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error)
}

// DonorService serves the donor profile. Giving totals are aggregated from completed donations
// on every read.
type DonorService struct {
	repo      donorRepository
	users     donorUserStore
	donations donationLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDonorService constructs the service.
func NewDonorService(repo donorRepository, users donorUserStore, donations donationLister, validate *validator.Validate, logger *zap.Logger) *DonorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DonorService{repo: repo, users: users, donations: donations, validator: validate, logger: logger}
}

// Profile returns the donor record with its computed aggregates. A missing donor record yields
// defaults instead of an error.
func (s *DonorService) Profile(ctx context.Context, userID string) (*models.DonorProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	donor, err := s.loadDonor(ctx, userID)
	if err != nil {
		return nil, err
	}
	supported, err := s.repo.SupportedCampaigns(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate donations")
	}
	if supported == nil {
		supported = []models.SupportedCampaign{}
	}
	total := 0.0
	for _, c := range supported {
		total += c.TotalAmount
	}
	return &models.DonorProfile{
		User:               models.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email},
		Donor:              *donor,
		TotalDonated:       total,
		CampaignsSupported: supported,
	}, nil
}

// UpdateProfile edits the donor's name and contact details.
func (s *DonorService) UpdateProfile(ctx context.Context, userID string, req dto.UpdateDonorProfileRequest) (*models.DonorProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	if req.Name != nil {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			if isNoRows(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
		}
		user.Name = strings.TrimSpace(*req.Name)
		if err := s.users.UpdateProfile(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
	}

	donor, err := s.loadDonor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Phone != nil {
		donor.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		donor.Address = *req.Address
	}
	if err := s.repo.Upsert(ctx, donor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update donor profile")
	}
	return s.Profile(ctx, userID)
}

// UpdatePreferences changes the provided notification settings.
func (s *DonorService) UpdatePreferences(ctx context.Context, userID string, req dto.UpdatePreferencesRequest) (*models.DonorPreferences, error) {
	donor, err := s.loadDonor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.EmailNotifications != nil {
		donor.Preferences.EmailNotifications = *req.EmailNotifications
	}
	if req.MonthlyUpdates != nil {
		donor.Preferences.MonthlyUpdates = *req.MonthlyUpdates
	}
	if req.AnonymousByDefault != nil {
		donor.Preferences.AnonymousByDefault = *req.AnonymousByDefault
	}
	if err := s.repo.Upsert(ctx, donor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update preferences")
	}
	return &donor.Preferences, nil
}

// Donations lists the donor's donation history.
func (s *DonorService) Donations(ctx context.Context, userID string, query dto.PageQuery) ([]models.Donation, *models.Pagination, error) {
	page, limit := pageBounds(query.Page, query.Limit)
	donations, total, err := s.donations.List(ctx, models.DonationFilter{DonorID: userID, Page: page, PageSize: limit})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list donations")
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	return donations, paginate(page, limit, total), nil
}

func (s *DonorService) loadDonor(ctx context.Context, userID string) (*models.Donor, error) {
	donor, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return &models.Donor{UserID: userID, Preferences: models.DefaultDonorPreferences()}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donor profile")
	}
	return donor, nil
}
