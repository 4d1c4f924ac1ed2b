package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/repository"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type studentProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	StudentIDTaken(ctx context.Context, studentID, userID string) (bool, error)
	Create(ctx context.Context, profile *models.StudentProfile) error
	Update(ctx context.Context, profile *models.StudentProfile) error
	Decide(ctx context.Context, id string, status models.ProfileStatus, notes string, at time.Time, buildEvent func(*models.StudentProfile) (*models.OutboxEvent, error)) (*models.StudentProfile, error)
	List(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfile, int, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type fileUploader interface {
	ValidateAll(uploads []UploadFile) error
	StoreAll(ctx context.Context, folder string, uploads []UploadFile) ([]StoredFile, error)
	Cleanup(ctx context.Context, files []StoredFile)
}

// Multipart field names of the academic documents.
const (
	FieldStudentIDCard   = "studentIdCard"
	FieldAdmissionLetter = "admissionLetter"
	FieldFeeStructure    = "feeStructure"
)

// StudentProfileService implements profile submission and the admin verification decision.
type StudentProfileService struct {
	repo      studentProfileRepository
	users     userReader
	uploads   fileUploader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentProfileService constructs the service.
func NewStudentProfileService(repo studentProfileRepository, users userReader, uploads fileUploader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentProfileService{repo: repo, users: users, uploads: uploads, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Submit creates or overwrites the caller's profile. A studentId claimed by another user is
// rejected before any file or row is written. Overwrites keep the current status.
func (s *StudentProfileService) Submit(ctx context.Context, userID string, req dto.SubmitProfileRequest, files []UploadFile) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	dob, ok := parseDate(req.DateOfBirth)
	if !ok || !dob.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateOfBirth must be a past date")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit a profile")
	}
	if user.IsSuspended {
		return nil, appErrors.Clone(appErrors.ErrSuspendedAccount, "account is suspended")
	}

	taken, err := s.repo.StudentIDTaken(ctx, req.StudentID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student ID already exists")
	}

	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	var stored []StoredFile
	if len(files) > 0 {
		if s.uploads == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "upload storage not configured")
		}
		if err := s.uploads.ValidateAll(files); err != nil {
			return nil, err
		}
		if stored, err = s.uploads.StoreAll(ctx, "profiles/"+userID, files); err != nil {
			return nil, err
		}
	}

	profile := existing
	if profile == nil {
		profile = &models.StudentProfile{UserID: userID, Status: models.ProfilePending}
	}
	profile.StudentID = req.StudentID
	profile.DateOfBirth = dob
	profile.Gender = req.Gender
	profile.School = models.School{Name: req.School.Name, Address: req.School.Address, Type: req.School.Type}
	profile.Course = models.Course{Name: req.Course.Name, Duration: req.Course.Duration, YearOfStudy: req.Course.YearOfStudy}
	profile.Bio = req.Bio
	profile.AcademicPerformance = req.AcademicPerformance
	profile.FutureGoals = req.FutureGoals
	profile.Documents = profile.Documents.Merge(academicDocuments(stored))

	if existing == nil {
		err = s.repo.Create(ctx, profile)
	} else {
		err = s.repo.Update(ctx, profile)
	}
	if err != nil {
		if s.uploads != nil {
			s.uploads.Cleanup(ctx, stored)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student ID already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	profile.User = &models.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email}
	return profile, nil
}

// GetMine returns the caller's profile.
func (s *StudentProfileService) GetMine(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Decide records an admin verify or reject decision. The owning user's isVerified flag follows the
// decision in the same transaction.
func (s *StudentProfileService) Decide(ctx context.Context, adminID, profileID string, req dto.DecideProfileRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid decision payload")
	}
	status, ok := req.Action.StatusFor()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be verify or reject")
	}

	at := s.now().UTC()
	profile, err := s.repo.Decide(ctx, profileID, status, req.Notes, at, func(p *models.StudentProfile) (*models.OutboxEvent, error) {
		return models.NewOutboxEvent(models.AggregateProfile, p.ID, models.EventProfileDecided, map[string]interface{}{
			"profileId": p.ID,
			"userId":    p.UserID,
			"status":    p.Status,
			"adminId":   adminID,
			"notes":     req.Notes,
			"decidedAt": at,
		})
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}
	s.metrics.RecordProfileDecision(string(status))
	s.logger.Info("student profile decided",
		zap.String("profile_id", profile.ID),
		zap.String("status", string(status)),
		zap.String("admin_id", adminID),
	)
	return profile, nil
}

// List returns profiles for the admin queue.
func (s *StudentProfileService) List(ctx context.Context, query dto.ProfileListQuery) ([]models.StudentProfile, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Validation(err, "invalid query")
	}
	filter := models.ProfileFilter{Search: query.Search, Page: query.Page, PageSize: query.Limit}
	if query.Status != "" {
		status := models.ProfileStatus(query.Status)
		filter.Status = &status
	}
	profiles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	return profiles, paginate(query.Page, query.Limit, total), nil
}

func academicDocuments(files []StoredFile) models.AcademicDocuments {
	var docs models.AcademicDocuments
	for _, f := range files {
		switch f.Field {
		case FieldStudentIDCard:
			docs.StudentIDCard = f.Ref()
		case FieldAdmissionLetter:
			docs.AdmissionLetter = f.Ref()
		case FieldFeeStructure:
			docs.FeeStructure = f.Ref()
		}
	}
	return docs
}
