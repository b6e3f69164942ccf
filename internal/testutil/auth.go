package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/config"
	"competency-assessment/internal/models"
)

// TestJWTSecret signs every token issued by AuthHelper
const TestJWTSecret = "test-secret-key-for-testing-only"

// AuthHelper issues real access tokens for tests
type AuthHelper struct {
	Service *auth.Service
}

// NewAuthHelper creates a new auth helper
func NewAuthHelper() *AuthHelper {
	return &AuthHelper{
		Service: auth.NewService(&config.JWTConfig{Secret: TestJWTSecret, Expiration: time.Hour}),
	}
}

// GenerateToken issues a token for user and returns it with its JTI
func (h *AuthHelper) GenerateToken(t *testing.T, user *models.User) (string, string) {
	t.Helper()

	token, jti, _, err := h.Service.GenerateToken(auth.Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token, jti
}

// CreateAuthenticatedRequest creates a request carrying a bearer token for user
func (h *AuthHelper) CreateAuthenticatedRequest(t *testing.T, method, url string, user *models.User) *http.Request {
	t.Helper()

	token, _ := h.GenerateToken(t, user)
	req := httptest.NewRequest(method, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
