package handlers

import (
	"context"
	"net/http"
	"strconv"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
)

// AuditService is what the audit handler needs from the service layer
type AuditService interface {
	List(ctx context.Context, actor auth.Identity, limit, offset int) ([]models.AuditLog, error)
}

// AuditHandler serves the audit trail
type AuditHandler struct {
	auditService AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// List returns audit log entries, newest first
// @Summary List audit logs
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size, 1 to 500 (default 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.AuditLog
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	logs, err := h.auditService.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list audit logs")
		return
	}

	JSONResponse(w, http.StatusOK, logs)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
