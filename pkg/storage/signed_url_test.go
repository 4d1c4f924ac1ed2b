package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, err := signer.Generate("report-1", "reports/campaigns.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token.Value)
	require.False(t, token.ExpiresAt.IsZero())

	parsed, err := signer.Parse(token.Value, false)
	require.NoError(t, err)
	require.Equal(t, "report-1", parsed.Subject)
	require.Equal(t, "reports/campaigns.csv", parsed.Path)
	require.WithinDuration(t, token.ExpiresAt, parsed.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Now()
	signer.now = func() time.Time { return issued }
	token, err := signer.Generate("report-1", "reports/campaigns.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Parse(token.Value, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	parsed, err := signer.Parse(token.Value, true)
	require.NoError(t, err)
	require.Equal(t, "report-1", parsed.Subject)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, err := signer.Generate("report-1", "reports/campaigns.csv")
	require.NoError(t, err)

	parts := strings.Split(token.Value, ".")
	parts[0] = "report-2"
	_, err = signer.Parse(strings.Join(parts, "."), false)
	require.ErrorIs(t, err, ErrTokenInvalid)

	other := NewSignedURLSigner("other-secret", time.Hour)
	_, err = other.Parse(token.Value, false)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
