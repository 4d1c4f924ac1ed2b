package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/repository"
)

type memoryUsers struct {
	byEmail map[string]*models.User
	revoked []string
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryUsers) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	user.ID = "new-id"
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.PasswordHash = passwordHash
		}
	}
	return nil
}

func (m *memoryUsers) UpdateAdminFields(ctx context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

type prefixHasher struct{}

func (prefixHasher) HashPassword(password string) (string, error) { return "hash:" + password, nil }

func newCommands() (*commands, *memoryUsers, *bytes.Buffer) {
	users := &memoryUsers{byEmail: map[string]*models.User{
		"dan@example.com": {ID: "u1", Email: "dan@example.com", Role: models.RoleDonor},
	}}
	out := &bytes.Buffer{}
	return &commands{users: users, hasher: prefixHasher{}, out: out}, users, out
}

func TestCreateAdmin(t *testing.T) {
	cmd, users, out := newCommands()

	err := cmd.run(context.Background(), "create-admin", []string{"-email", " Root@Example.com ", "-password", "secret1"})
	require.NoError(t, err)
	admin := users.byEmail["root@example.com"]
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsVerified)
	assert.Equal(t, "hash:secret1", admin.PasswordHash)
	assert.Contains(t, out.String(), "created admin")

	err = cmd.run(context.Background(), "create-admin", []string{"-email", "root@example.com", "-password", "secret1"})
	assert.ErrorContains(t, err, "already exists")

	err = cmd.run(context.Background(), "create-admin", []string{"-email", "x@example.com", "-password", "123"})
	assert.Error(t, err)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	cmd, users, _ := newCommands()

	require.NoError(t, cmd.run(context.Background(), "reset-password", []string{"-email", "dan@example.com", "-password", "newpass"}))
	assert.Equal(t, "hash:newpass", users.byEmail["dan@example.com"].PasswordHash)
	assert.Equal(t, []string{"u1"}, users.revoked)

	err := cmd.run(context.Background(), "reset-password", []string{"-email", "ghost@example.com", "-password", "newpass"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestVerifyUser(t *testing.T) {
	cmd, users, _ := newCommands()

	require.NoError(t, cmd.run(context.Background(), "verify-user", []string{"-email", "dan@example.com"}))
	assert.True(t, users.byEmail["dan@example.com"].IsVerified)

	require.NoError(t, cmd.run(context.Background(), "verify-user", []string{"-email", "dan@example.com", "-unverify"}))
	assert.False(t, users.byEmail["dan@example.com"].IsVerified)

	assert.Error(t, cmd.run(context.Background(), "drop-db", nil))
}
