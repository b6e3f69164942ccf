package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"competency-assessment/internal/models"
)

// AuditStore persists audit log entries
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditMiddleware records security relevant requests with the client address
type AuditMiddleware struct {
	auditRepo AuditStore
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditRepo AuditStore) *AuditMiddleware {
	return &AuditMiddleware{
		auditRepo: auditRepo,
	}
}

// Log writes an audit entry after the wrapped handler succeeded. Only authenticated
// requests are recorded; failures to write are logged and never reach the client.
func (m *AuditMiddleware) Log(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			id, ok := GetIdentity(r)
			if !ok || wrapped.statusCode >= 400 {
				return
			}

			userID := id.UserID
			entry := &models.AuditLog{
				TenantID:  id.TenantID,
				UserID:    &userID,
				Action:    action,
				Resource:  resource,
				Details:   r.Method + " " + r.URL.Path,
				IPAddress: getIP(r),
				UserAgent: r.UserAgent(),
			}

			// The request context may already be canceled once the response is written
			if err := m.auditRepo.Create(context.WithoutCancel(r.Context()), entry); err != nil {
				slog.Error("Failed to write audit log", "action", action, "error", err)
			}
		})
	}
}
