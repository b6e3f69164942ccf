package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/models"
)

type failingAudit struct{ fakeAudit }

func (f *failingAudit) Create(context.Context, *models.AuditLog) error {
	return errors.New("db down")
}

func TestAuditLog(t *testing.T) {
	ctx := context.Background()
	store := &fakeAudit{}
	svc := NewAuditService(store)

	svc.Log(ctx, hr, "create", "department", "Created department")
	require.Len(t, store.logs, 1)
	assert.Equal(t, hr.TenantID, store.logs[0].TenantID)
	require.NotNil(t, store.logs[0].UserID)
	assert.Equal(t, hr.UserID, *store.logs[0].UserID)

	assert.NotPanics(t, func() {
		NewAuditService(&failingAudit{}).Log(ctx, hr, "create", "department", "")
	})

	var nilSvc *AuditService
	assert.NotPanics(t, func() { nilSvc.Log(ctx, hr, "create", "department", "") })

	logs, err := svc.List(ctx, admin, 0, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = svc.List(ctx, hr, 10, 0)
	assert.ErrorIs(t, err, ErrForbidden)
}
