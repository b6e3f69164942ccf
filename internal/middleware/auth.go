package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"competency-assessment/internal/auth"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.JWTClaims, error)
}

// SessionChecker reports whether the session of a token is still open
type SessionChecker interface {
	IsActive(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware validates JWT tokens
type AuthMiddleware struct {
	tokens   TokenValidator
	sessions SessionChecker
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenValidator, sessions SessionChecker) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		sessions: sessions,
	}
}

// Authenticate validates the bearer token and its session and puts the caller's
// identity into the request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// Logged out tokens stay valid JWTs until they expire
		active, err := m.sessions.IsActive(r.Context(), claims.ID)
		if err != nil {
			slog.Error("Failed to check session", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to check session")
			return
		}
		if !active {
			respondWithError(w, http.StatusUnauthorized, "Token has been invalidated")
			return
		}

		id := auth.Identity{
			UserID:   claims.UserID,
			TenantID: claims.TenantID,
			Email:    claims.Email,
			Role:     claims.Role,
		}
		ctx := WithIdentity(r.Context(), id)
		ctx = context.WithValue(ctx, tokenKey, token)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithIdentity returns a context carrying id
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity retrieves the authenticated caller from the request context
func GetIdentity(r *http.Request) (auth.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(auth.Identity)
	return id, ok
}

// GetToken retrieves the raw bearer token from the request context
func GetToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenKey).(string)
	return token, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
