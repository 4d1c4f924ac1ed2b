package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/dto"
	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
)

type mockProfileRepo struct {
	profiles map[string]*models.StudentProfile
	users    *mockUserStore
	events   []*models.OutboxEvent
	creates  int
	updates  int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*models.StudentProfile)}
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) StudentIDTaken(ctx context.Context, studentID, userID string) (bool, error) {
	for _, p := range m.profiles {
		if p.StudentID == studentID && p.UserID != userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *models.StudentProfile) error {
	m.creates++
	if profile.ID == "" {
		profile.ID = "profile-" + profile.UserID
	}
	cp := *profile
	m.profiles[profile.ID] = &cp
	return nil
}

func (m *mockProfileRepo) Update(ctx context.Context, profile *models.StudentProfile) error {
	m.updates++
	cp := *profile
	m.profiles[profile.ID] = &cp
	return nil
}

func (m *mockProfileRepo) Decide(ctx context.Context, id string, status models.ProfileStatus, notes string, at time.Time, buildEvent func(*models.StudentProfile) (*models.OutboxEvent, error)) (*models.StudentProfile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p.Status = status
	p.AdminNotes = notes
	if status == models.ProfileVerified {
		p.VerifiedAt = &at
	} else {
		p.RejectedAt = &at
	}
	if m.users != nil {
		if u, ok := m.users.users[p.UserID]; ok {
			u.IsVerified = status == models.ProfileVerified
		}
	}
	evt, err := buildEvent(p)
	if err != nil {
		return nil, err
	}
	m.events = append(m.events, evt)
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) List(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfile, int, error) {
	var out []models.StudentProfile
	for _, p := range m.profiles {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

type mockUserStore struct {
	users map[string]*models.User
}

func newMockUserStore(users ...*models.User) *mockUserStore {
	m := &mockUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func validProfileRequest(studentID string) dto.SubmitProfileRequest {
	return dto.SubmitProfileRequest{
		StudentID:   studentID,
		DateOfBirth: "2001-04-12",
		School:      dto.SchoolInput{Name: "University of Lagos", Type: "university"},
		Course:      dto.CourseInput{Name: "Law", YearOfStudy: 2},
	}
}

func newProfileFixture() (*StudentProfileService, *mockProfileRepo, *mockUserStore, *memoryObjectStore) {
	users := newMockUserStore(
		&models.User{ID: "s1", Name: "Ada", Role: models.RoleStudent},
		&models.User{ID: "s2", Name: "Bola", Role: models.RoleStudent},
		&models.User{ID: "d1", Name: "Dan", Role: models.RoleDonor},
	)
	repo := newMockProfileRepo()
	repo.users = users
	store := newMemoryObjectStore()
	svc := NewStudentProfileService(repo, users, NewUploadService(store, 0, nil), nil, validator.New(), zap.NewNop())
	return svc, repo, users, store
}

func TestSubmitProfileCreatesPending(t *testing.T) {
	svc, repo, _, store := newProfileFixture()

	profile, err := svc.Submit(context.Background(), "s1", validProfileRequest("S123"), []UploadFile{
		upload(FieldStudentIDCard, "card.png", pngHeader),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProfilePending, profile.Status)
	assert.Equal(t, "University of Lagos", profile.School.Name)
	assert.False(t, profile.Documents.StudentIDCard.Empty())
	assert.True(t, profile.Documents.FeeStructure.Empty())
	assert.Equal(t, 1, repo.creates)
	assert.Len(t, store.objects, 1)
}

func TestSubmitProfileConflictWritesNothing(t *testing.T) {
	svc, repo, _, store := newProfileFixture()
	repo.profiles["p2"] = &models.StudentProfile{ID: "p2", UserID: "s2", StudentID: "S123", Status: models.ProfileVerified}

	_, err := svc.Submit(context.Background(), "s1", validProfileRequest("S123"), []UploadFile{
		upload(FieldStudentIDCard, "card.png", pngHeader),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, 0, repo.creates)
	assert.Equal(t, 0, repo.updates)
	assert.Empty(t, store.objects)
}

func TestSubmitProfileOverwriteKeepsStatusAndDocuments(t *testing.T) {
	svc, repo, _, _ := newProfileFixture()
	card := models.DocumentRef{URL: "/uploads/card.png", PublicID: "card.png"}
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", UserID: "s1", StudentID: "S123", Status: models.ProfileVerified,
		Documents: models.AcademicDocuments{StudentIDCard: card}}

	req := validProfileRequest("S123")
	req.Bio = "Second year law student"
	profile, err := svc.Submit(context.Background(), "s1", req, []UploadFile{upload(FieldFeeStructure, "fees.pdf", pdfHeader)})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileVerified, profile.Status)
	assert.Equal(t, card, profile.Documents.StudentIDCard)
	assert.False(t, profile.Documents.FeeStructure.Empty())
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, "Second year law student", repo.profiles["p1"].Bio)
}

func TestSubmitProfileValidation(t *testing.T) {
	svc, _, _, _ := newProfileFixture()

	req := validProfileRequest("S123")
	req.Course.YearOfStudy = 11
	_, err := svc.Submit(context.Background(), "s1", req, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.NotEmpty(t, appErr.Details)

	req = validProfileRequest("S123")
	req.DateOfBirth = "12/04/2001"
	_, err = svc.Submit(context.Background(), "s1", req, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitProfileRequiresStudentRole(t *testing.T) {
	svc, _, _, _ := newProfileFixture()

	_, err := svc.Submit(context.Background(), "d1", validProfileRequest("S999"), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDecideProfileRejectClearsVerification(t *testing.T) {
	svc, repo, users, _ := newProfileFixture()
	users.users["s1"].IsVerified = true
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", UserID: "s1", StudentID: "S123", Status: models.ProfilePending}

	profile, err := svc.Decide(context.Background(), "admin-1", "p1", dto.DecideProfileRequest{Action: models.ProfileActionReject, Notes: "blurry id card"})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileRejected, profile.Status)
	assert.NotNil(t, profile.RejectedAt)
	assert.Equal(t, "blurry id card", profile.AdminNotes)
	assert.False(t, users.users["s1"].IsVerified)
	require.Len(t, repo.events, 1)
	assert.Equal(t, models.EventProfileDecided, repo.events[0].EventType)
}

func TestDecideProfileVerifyAndMissing(t *testing.T) {
	svc, repo, users, _ := newProfileFixture()
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", UserID: "s1", Status: models.ProfilePending}

	profile, err := svc.Decide(context.Background(), "admin-1", "p1", dto.DecideProfileRequest{Action: models.ProfileActionVerify})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileVerified, profile.Status)
	assert.True(t, users.users["s1"].IsVerified)

	_, err = svc.Decide(context.Background(), "admin-1", "missing", dto.DecideProfileRequest{Action: models.ProfileActionVerify})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Decide(context.Background(), "admin-1", "p1", dto.DecideProfileRequest{Action: "pending"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListProfilesPaginates(t *testing.T) {
	svc, repo, _, _ := newProfileFixture()
	repo.profiles["p1"] = &models.StudentProfile{ID: "p1", UserID: "s1", Status: models.ProfilePending}
	repo.profiles["p2"] = &models.StudentProfile{ID: "p2", UserID: "s2", Status: models.ProfileVerified}

	profiles, pagination, err := svc.List(context.Background(), dto.ProfileListQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
