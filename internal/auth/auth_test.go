package auth

import (
	"context"
	"testing"
	"time"

	"quota-service/internal/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpRejectsUnknownProfileType(t *testing.T) {
	svc := NewService(nil, nil, "test-secret", time.Hour)

	for _, profileType := range []string{"admin", "buyer", ""} {
		_, err := svc.SignUp(context.Background(), &SignUpRequest{
			Email:    "maria@example.com",
			Password: "s3nha-f0rte",
			FullName: "Maria Silva",
			Type:     profileType,
		})
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeInvalid, models.CodeOf(err))
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	svc := NewService(nil, nil, "test-secret", time.Hour)

	now := time.Now()
	claims := &Claims{
		SessionID: "session-1",
		UserID:    "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.jwtSecret)
	require.NoError(t, err)

	parsed, err := svc.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", parsed.SessionID)
	assert.Equal(t, "user-1", parsed.UserID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	svc := NewService(nil, nil, "test-secret", time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SessionID: "session-1",
		UserID:    "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	_, err = svc.parseToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := NewService(nil, nil, "test-secret", time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SessionID: "session-1",
		UserID:    "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString(svc.jwtSecret)
	require.NoError(t, err)

	_, err = svc.parseToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := NewService(nil, nil, "test-secret", time.Hour)

	_, err := svc.parseToken("not-a-jwt")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
