package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edufund-api/internal/models"
)

const profileSelect = `SELECT p.id, p.user_id, p.student_id, p.date_of_birth, p.gender, p.school_name, p.school_address, p.school_type, p.course_name, p.course_duration, p.year_of_study, p.documents, p.bio, p.academic_performance, p.future_goals, p.status, p.admin_notes, p.verified_at, p.rejected_at, p.created_at, p.updated_at, u.name AS user_name, u.email AS user_email FROM student_profiles p JOIN users u ON u.id = p.user_id`

// StudentProfileRepository persists student profiles.
type StudentProfileRepository struct {
	db *sqlx.DB
}

// NewStudentProfileRepository constructs the repository.
func NewStudentProfileRepository(db *sqlx.DB) *StudentProfileRepository {
	return &StudentProfileRepository{db: db}
}

// FindByUserID returns the caller's profile.
func (r *StudentProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	return r.findOne(ctx, profileSelect+` WHERE p.user_id = $1 LIMIT 1`, userID, "find profile by user")
}

// FindByID returns a profile by identifier.
func (r *StudentProfileRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	return r.findOne(ctx, profileSelect+` WHERE p.id = $1 LIMIT 1`, id, "find profile by id")
}

func (r *StudentProfileRepository) findOne(ctx context.Context, query, arg, op string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	attachProfileUser(&profile)
	return &profile, nil
}

// StudentIDTaken reports whether another user already claimed studentID.
func (r *StudentProfileRepository) StudentIDTaken(ctx context.Context, studentID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM student_profiles WHERE student_id = $1 AND user_id <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, studentID, userID); err != nil {
		return false, fmt.Errorf("check student id: %w", err)
	}
	return taken, nil
}

// Create inserts a new profile. A unique violation returns ErrDuplicate.
func (r *StudentProfileRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.Status == "" {
		profile.Status = models.ProfilePending
	}

	const query = `INSERT INTO student_profiles (id, user_id, student_id, date_of_birth, gender, school_name, school_address, school_type, course_name, course_duration, year_of_study, documents, bio, academic_performance, future_goals, status, admin_notes, created_at, updated_at) VALUES (:id, :user_id, :student_id, :date_of_birth, :gender, :school_name, :school_address, :school_type, :course_name, :course_duration, :year_of_study, :documents, :bio, :academic_performance, :future_goals, :status, :admin_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create student profile: %w", err)
	}
	return nil
}

// Update overwrites the student-editable fields. Status and decision stamps are untouched.
func (r *StudentProfileRepository) Update(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_profiles SET student_id = :student_id, date_of_birth = :date_of_birth, gender = :gender, school_name = :school_name, school_address = :school_address, school_type = :school_type, course_name = :course_name, course_duration = :course_duration, year_of_study = :year_of_study, documents = :documents, bio = :bio, academic_performance = :academic_performance, future_goals = :future_goals, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update student profile: %w", err)
	}
	return requireAffected(res)
}

// Decide applies an admin decision and mirrors it onto users.is_verified in one transaction.
func (r *StudentProfileRepository) Decide(ctx context.Context, id string, status models.ProfileStatus, notes string, at time.Time, buildEvent func(*models.StudentProfile) (*models.OutboxEvent, error)) (profile *models.StudentProfile, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin profile decision: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var userID string
	if err = tx.GetContext(ctx, &userID, `SELECT user_id FROM student_profiles WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock student profile: %w", err)
	}

	var verifiedAt, rejectedAt *time.Time
	if status == models.ProfileVerified {
		verifiedAt = &at
	} else {
		rejectedAt = &at
	}
	const update = `UPDATE student_profiles SET status = $2, admin_notes = $3, verified_at = $4, rejected_at = $5, updated_at = $6 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, id, status, notes, verifiedAt, rejectedAt, at); err != nil {
		return nil, fmt.Errorf("update profile status: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE users SET is_verified = $2, updated_at = $3 WHERE id = $1`, userID, status == models.ProfileVerified, at); err != nil {
		return nil, fmt.Errorf("update user verification: %w", err)
	}

	var decided models.StudentProfile
	if err = tx.GetContext(ctx, &decided, profileSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, fmt.Errorf("reload student profile: %w", err)
	}
	attachProfileUser(&decided)

	if buildEvent != nil {
		var evt *models.OutboxEvent
		if evt, err = buildEvent(&decided); err != nil {
			return nil, fmt.Errorf("build profile event: %w", err)
		}
		if err = insertOutbox(ctx, tx, evt); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit profile decision: %w", err)
	}
	return &decided, nil
}

// List returns profiles for admins with total count.
func (r *StudentProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfile, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.name) LIKE $%d OR LOWER(u.email) LIKE $%d OR LOWER(p.student_id) LIKE $%d OR LOWER(p.school_name) LIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s%s ORDER BY p.created_at DESC LIMIT %d OFFSET %d", profileSelect, where, pageSize, (page-1)*pageSize)
	var profiles []models.StudentProfile
	if err := r.db.SelectContext(ctx, &profiles, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list student profiles: %w", err)
	}
	for i := range profiles {
		attachProfileUser(&profiles[i])
	}

	countQuery := "SELECT COUNT(*) FROM student_profiles p JOIN users u ON u.id = p.user_id" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count student profiles: %w", err)
	}
	return profiles, total, nil
}

func attachProfileUser(p *models.StudentProfile) {
	p.User = &models.UserSummary{ID: p.UserID, Name: p.UserName, Email: p.UserEmail}
}
