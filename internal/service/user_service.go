package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateAdminFields(ctx context.Context, user *models.User) error
	SetSuspended(ctx context.Context, id string, suspended bool) error
}

// UserService handles admin user management.
type UserService struct {
	repo      userRepository
	flags     flagStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, flags flagStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, flags: flags, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, query dto.UserListQuery) ([]models.User, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Validation(err, "invalid query")
	}
	page, pageSize := pageBounds(query.Page, query.Limit)
	filter := models.UserFilter{
		Suspended: query.Suspended,
		Search:    query.Search,
		Page:      page,
		PageSize:  pageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Role != "" {
		role := models.UserRole(query.Role)
		filter.Role = &role
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginate(page, pageSize, total), nil
}

// Get returns a user by ID together with its flags.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if s.flags != nil {
		flags, err := s.flags.ListForSubject(ctx, models.FlagSubjectUser, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user flags")
		}
		user.Flags = flags
	}
	return user, nil
}

// Update modifies the admin-managed role and verification flag. Admins cannot demote themselves.
func (s *UserService) Update(ctx context.Context, actorID, id string, req dto.AdminUpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil {
		if actorID == id && *req.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrValidation, "admins cannot change their own role")
		}
		user.Role = *req.Role
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}
	if err := s.repo.UpdateAdminFields(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.logger.Info("user updated", zap.String("user_id", id), zap.String("role", string(user.Role)), zap.String("actor_id", actorID))
	return user, nil
}

// SetSuspended suspends or restores an account. Suspension revokes every refresh token.
func (s *UserService) SetSuspended(ctx context.Context, actorID, id string, req dto.SuspendUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid suspend payload")
	}
	if actorID == id && req.Suspended {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admins cannot suspend themselves")
	}
	if err := s.repo.SetSuspended(ctx, id, req.Suspended); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update suspension")
	}
	s.logger.Info("user suspension changed",
		zap.String("user_id", id),
		zap.Bool("suspended", req.Suspended),
		zap.String("reason", req.Reason),
		zap.String("actor_id", actorID),
	)
	return s.Get(ctx, id)
}

// Flag raises a moderation flag on a user.
func (s *UserService) Flag(ctx context.Context, actorID, id string, req dto.FlagRequest) (*models.Flag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid flag payload")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	flag := &models.Flag{
		SubjectType: models.FlagSubjectUser,
		SubjectID:   id,
		Reason:      req.Reason,
		Severity:    req.Severity,
		FlaggedBy:   actorID,
	}
	if err := s.flags.Create(ctx, flag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flag user")
	}
	return flag, nil
}
