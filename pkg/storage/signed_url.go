package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid is returned for malformed or tampered tokens.
	ErrTokenInvalid = errors.New("invalid download token")
	// ErrTokenExpired is returned once the token TTL has elapsed.
	ErrTokenExpired = errors.New("download token expired")
)

// SignedToken is a decoded download token.
type SignedToken struct {
	Value     string
	Subject   string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token binding the subject (a report id) to a stored relative path.
func (s *SignedURLSigner) Generate(subject, relPath string) (SignedToken, error) {
	if subject == "" || relPath == "" {
		return SignedToken{}, fmt.Errorf("subject and path required")
	}
	if strings.Contains(subject, ".") {
		return SignedToken{}, fmt.Errorf("subject must not contain '.'")
	}
	if len(s.secret) == 0 {
		return SignedToken{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(subject, ts, encodedPath)
	return SignedToken{
		Value:     strings.Join([]string{subject, ts, encodedPath, signature}, "."),
		Subject:   subject,
		Path:      relPath,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse validates a token and returns the embedded metadata.
// When allowExpired is true, the timestamp check is skipped (used by cleanup routines).
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (SignedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return SignedToken{}, ErrTokenInvalid
	}
	subject, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(subject, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return SignedToken{}, ErrTokenInvalid
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return SignedToken{}, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return SignedToken{}, ErrTokenInvalid
	}
	expiresAt := time.Unix(expUnix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return SignedToken{}, ErrTokenExpired
	}
	return SignedToken{Value: token, Subject: subject, Path: string(rawPath), ExpiresAt: expiresAt}, nil
}

func (s *SignedURLSigner) sign(subject, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(subject + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
