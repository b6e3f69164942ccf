package service

import (
	"context"
	"fmt"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/pkg/validator"
)

// CreateUserRequest describes a new user account
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Role      string `json:"role" validate:"required,oneof=admin hr assessor employee"`
}

// UpdateUserRequest changes the role and active flag of a user
type UpdateUserRequest struct {
	Role     string `json:"role" validate:"required,oneof=admin hr assessor employee"`
	IsActive bool   `json:"is_active"`
}

// UserService manages the user accounts of a tenant. Admin and HR only; only admins
// may create or promote admins.
type UserService struct {
	userRepo UserStore
	authSvc  *auth.Service
	auditSvc *AuditService
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore, authSvc *auth.Service, auditSvc *AuditService) *UserService {
	return &UserService{
		userRepo: userRepo,
		authSvc:  authSvc,
		auditSvc: auditSvc,
	}
}

// Me returns the caller's own account
func (s *UserService) Me(ctx context.Context, actor auth.Identity) (*models.User, error) {
	return s.userRepo.GetByID(ctx, actor.TenantID, actor.UserID)
}

func (s *UserService) List(ctx context.Context, actor auth.Identity) ([]models.User, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	return s.userRepo.List(ctx, actor.TenantID)
}

func (s *UserService) Get(ctx context.Context, actor auth.Identity, id uint) (*models.User, error) {
	if !isManager(actor) && actor.UserID != id {
		return nil, ErrForbidden
	}
	return s.userRepo.GetByID(ctx, actor.TenantID, id)
}

func (s *UserService) Create(ctx context.Context, actor auth.Identity, req CreateUserRequest) (*models.User, error) {
	if !validRole(req.Role) {
		return nil, invalid("unknown role %q", req.Role)
	}
	if !canGrant(actor, req.Role) {
		return nil, ErrForbidden
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := s.authSvc.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		TenantID:     actor.TenantID,
		Email:        validator.SanitizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    validator.SanitizeString(req.FirstName),
		LastName:     validator.SanitizeString(req.LastName),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "create", "user", fmt.Sprintf("Created user %s with role %s", user.Email, user.Role))
	return user, nil
}

// Update changes the role and active flag of a user. Callers cannot lock themselves out.
func (s *UserService) Update(ctx context.Context, actor auth.Identity, id uint, req UpdateUserRequest) (*models.User, error) {
	if !validRole(req.Role) {
		return nil, invalid("unknown role %q", req.Role)
	}
	if !canGrant(actor, req.Role) {
		return nil, ErrForbidden
	}
	if id == actor.UserID && (req.Role != actor.Role || !req.IsActive) {
		return nil, invalid("you cannot change your own role or deactivate yourself")
	}

	current, err := s.userRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if current.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	if err := s.userRepo.UpdateRole(ctx, actor.TenantID, id, req.Role, req.IsActive); err != nil {
		return nil, err
	}
	current.Role = req.Role
	current.IsActive = req.IsActive

	s.auditSvc.Log(ctx, actor, "update", "user",
		fmt.Sprintf("User %d now has role %s (active: %t)", id, req.Role, req.IsActive))
	return current, nil
}

func canGrant(actor auth.Identity, role string) bool {
	if !isManager(actor) {
		return false
	}
	return role != models.RoleAdmin || actor.Role == models.RoleAdmin
}
