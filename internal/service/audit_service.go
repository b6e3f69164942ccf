package service

import (
	"context"
	"log/slog"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
)

// AuditStore persists audit log entries
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, tenantID uint, limit, offset int) ([]models.AuditLog, error)
}

// AuditService handles audit logging
type AuditService struct {
	auditRepo AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo AuditStore) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Log creates an audit log entry. Failures are logged and never reach the caller.
func (s *AuditService) Log(ctx context.Context, actor auth.Identity, action, resource, details string) {
	if s == nil {
		return
	}
	userID := actor.UserID
	err := s.auditRepo.Create(ctx, &models.AuditLog{
		TenantID: actor.TenantID,
		UserID:   &userID,
		Action:   action,
		Resource: resource,
		Details:  details,
	})
	if err != nil {
		slog.Error("Failed to write audit log", "action", action, "resource", resource, "error", err)
	}
}

// List returns the audit log of the caller's tenant, newest first
func (s *AuditService) List(ctx context.Context, actor auth.Identity, limit, offset int) ([]models.AuditLog, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.auditRepo.List(ctx, actor.TenantID, limit, offset)
}
