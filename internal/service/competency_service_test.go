package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/models"
)

// levelStore records levels; the other framework methods are not exercised here
type levelStore struct {
	CompetencyStore
	levels  []models.ProficiencyLevel
	deleted []uint
}

func (s *levelStore) UpsertLevel(_ context.Context, l *models.ProficiencyLevel) error {
	l.ID = uint(len(s.levels) + 1)
	s.levels = append(s.levels, *l)
	return nil
}

func (s *levelStore) DeleteDomain(_ context.Context, _ uint, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestSaveLevel(t *testing.T) {
	ctx := context.Background()
	store := &levelStore{}
	audit := &fakeAudit{}
	svc := NewCompetencyService(store, NewAuditService(audit))

	for _, level := range []int{0, 6, -1} {
		_, err := svc.SaveLevel(ctx, hr, LevelRequest{Level: level, Label: "x"})
		assert.ErrorIs(t, err, ErrValidation, "level %d", level)
	}

	l, err := svc.SaveLevel(ctx, hr, LevelRequest{Level: 3, Label: "Advanced"})
	require.NoError(t, err)
	assert.Equal(t, hr.TenantID, l.TenantID)
	assert.Equal(t, []string{"save proficiency_level"}, audit.actions())

	_, err = svc.SaveLevel(ctx, assessor, LevelRequest{Level: 3, Label: "Advanced"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestFrameworkWritesNeedManager(t *testing.T) {
	ctx := context.Background()
	store := &levelStore{}
	svc := NewCompetencyService(store, nil)

	_, err := svc.CreateDomain(ctx, employee, DomainRequest{Name: "Leadership"})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, svc.DeleteDomain(ctx, assessor, 1), ErrForbidden)
	require.NoError(t, svc.DeleteDomain(ctx, admin, 1))
	assert.Equal(t, []uint{1}, store.deleted)
}
