package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/config"
)

func newTestService(expiration time.Duration) *Service {
	return NewService(&config.JWTConfig{
		Secret:     "test-secret-key-for-testing-only",
		Expiration: expiration,
	})
}

var testIdentity = Identity{UserID: 7, TenantID: 3, Email: "jane@example.com", Role: "employee"}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := newTestService(time.Hour)

	hash, err := svc.HashPassword("testpassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "testpassword123", hash)

	assert.NoError(t, svc.VerifyPassword(hash, "testpassword123"))
	assert.Error(t, svc.VerifyPassword(hash, "wrongpassword"))
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(time.Hour)

	token, jti, expiresAt, err := svc.GenerateToken(testIdentity)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(3), claims.TenantID)
	assert.Equal(t, "employee", claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestTokensHaveUniqueJTI(t *testing.T) {
	svc := newTestService(time.Hour)

	_, first, _, err := svc.GenerateToken(testIdentity)
	require.NoError(t, err)
	_, second, _, err := svc.GenerateToken(testIdentity)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(-time.Hour)

	token, jti, _, err := svc.GenerateToken(testIdentity)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	extracted, err := svc.ExtractJTI(token)
	require.NoError(t, err)
	assert.Equal(t, jti, extracted)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	svc := newTestService(time.Hour)

	other := NewService(&config.JWTConfig{Secret: "another-secret", Expiration: time.Hour})
	token, _, _, err := other.GenerateToken(testIdentity)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
