package service

import (
	"context"
	"errors"
	"fmt"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/repository"
)

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, tenantID, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, tenantID uint) ([]models.User, error)
	UpdateRole(ctx context.Context, tenantID, id uint, role string, isActive bool) error
}

// SessionStore persists issued access tokens
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	DeleteByJTI(ctx context.Context, jti string) error
}

// LoginResult is what a successful login returns
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo    UserStore
	sessionRepo SessionStore
	authSvc     *auth.Service
	auditSvc    *AuditService
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo UserStore,
	sessionRepo SessionStore,
	authSvc *auth.Service,
	auditSvc *AuditService,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		authSvc:     authSvc,
		auditSvc:    auditSvc,
	}
}

// Login authenticates a user and opens a session for the issued token
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	id := auth.Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
		Role:     user.Role,
	}
	token, jti, expiresAt, err := s.authSvc.GenerateToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	session := &models.Session{
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: expiresAt,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.auditSvc.Log(ctx, id, "login", "auth", fmt.Sprintf("User %s logged in", user.Email))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresAt.Sub(session.CreatedAt).Seconds()),
		User:        user,
	}, nil
}

// Logout closes the session of a token. Expired tokens can still be logged out.
func (s *AuthService) Logout(ctx context.Context, actor auth.Identity, token string) error {
	jti, err := s.authSvc.ExtractJTI(token)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByJTI(ctx, jti); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor, "logout", "auth", "Session closed")
	return nil
}
