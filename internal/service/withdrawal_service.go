package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type withdrawalRepository interface {
	FindByID(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	UpdateStatus(ctx context.Context, id string, expected, next models.WithdrawalStatus, notes, adminID string) error
	List(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalRequest, int, error)
}

// WithdrawalService lets admins review payout requests.
type WithdrawalService struct {
	repo      withdrawalRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWithdrawalService constructs the service.
func NewWithdrawalService(repo withdrawalRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *WithdrawalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WithdrawalService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns withdrawal requests, newest first.
func (s *WithdrawalService) List(ctx context.Context, query dto.WithdrawalListQuery) ([]models.WithdrawalRequest, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Validation(err, "invalid query")
	}
	page, limit := pageBounds(query.Page, query.Limit)
	filter := models.WithdrawalFilter{Page: page, PageSize: limit}
	if query.Status != "" {
		status := models.WithdrawalStatus(query.Status)
		filter.Status = &status
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list withdrawals")
	}
	return requests, paginate(page, limit, total), nil
}

// Process moves a request to approved, rejected or processed. The
// update is conditional on the status read, so concurrent decisions
// cannot both win.
func (s *WithdrawalService) Process(ctx context.Context, adminID, id string, req dto.ProcessWithdrawalRequest) (*models.WithdrawalRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid withdrawal decision")
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "withdrawal cannot move from "+string(current.Status)+" to "+string(req.Status))
	}
	if err := s.repo.UpdateStatus(ctx, id, current.Status, req.Status, req.Notes, adminID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "withdrawal was processed concurrently, please retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process withdrawal")
	}
	_ = s.cache.Invalidate(ctx, cacheDashboardKey)
	s.logger.Info("withdrawal processed",
		zap.String("withdrawal_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(req.Status)),
		zap.String("admin_id", adminID),
	)
	return s.load(ctx, id)
}

func (s *WithdrawalService) load(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "withdrawal request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load withdrawal request")
	}
	return w, nil
}
