package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/models"
)

func completed(id uint, typ models.AssessmentType, employeeID uint, assessorID *uint, ratings ...models.CompetencyRating) models.Assessment {
	done := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	return models.Assessment{
		ID:          id,
		TenantID:    1,
		Type:        typ,
		Status:      models.AssessmentStatusCompleted,
		EmployeeID:  employeeID,
		AssessorID:  assessorID,
		CompletedAt: &done,
		Ratings:     ratings,
	}
}

func rated(competencyID uint, value int, comment string) models.CompetencyRating {
	cr := models.CompetencyRating{CompetencyID: competencyID, Rating: value}
	if comment != "" {
		stored := "sealed:" + comment
		cr.CommentCiphertext = &stored
	}
	return cr
}

func newConsensusFixture() (*ConsensusService, *fakeAssessments) {
	assessments := newFakeAssessments()
	assessments.put(completed(1, models.AssessmentTypeSelf, employee.UserID, nil,
		rated(1, 4, "confident"), rated(2, 3, "")))
	assessments.put(completed(2, models.AssessmentTypeAssessor, employee.UserID, uintPtr(assessor.UserID),
		rated(1, 2, "needs practice"), rated(3, 5, "")))
	// other has only a self assessment, so no pair
	assessments.put(completed(3, models.AssessmentTypeSelf, other.UserID, nil, rated(1, 5, "")))

	svc := NewConsensusService(testUsers(), newFakeCompetencies(), newFakeOrg(), assessments, prefixCipher{})
	return svc, assessments
}

func TestConsensusGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newConsensusFixture()

	view, err := svc.Get(ctx, hr, employee.UserID)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", view.EmployeeName)
	assert.Equal(t, "jane@example.com", view.EmployeeEmail)
	assert.Equal(t, "Alex Lead", view.AssessorName)
	assert.Equal(t, "Engineering", view.DepartmentName)
	assert.Equal(t, "Developer", view.JobTitle)
	assert.Equal(t, uint(1), view.SelfAssessmentID)
	assert.Equal(t, uint(2), view.AssessorAssessmentID)

	require.Len(t, view.CompetencyRatings, 3)
	first := view.CompetencyRatings[0]
	assert.Equal(t, "Communication", first.CompetencyName)
	assert.Equal(t, 3.0, first.ConsensusRating)
	require.NotNil(t, first.Comments)
	assert.Equal(t, "confident", *first.Comments)
	require.NotNil(t, first.AssessorComments)
	assert.Equal(t, "needs practice", *first.AssessorComments)

	assert.Equal(t, "Delivery", view.CompetencyRatings[2].CompetencyName)
	assert.Equal(t, 0, view.CompetencyRatings[2].Rating)

	assert.Equal(t, 2.3, view.EmployeeOverall)
	assert.Equal(t, 3.5, view.AssessorOverall)
	assert.Equal(t, 3.7, view.ConsensusOverall)
}

func TestConsensusGetErrors(t *testing.T) {
	ctx := context.Background()
	svc, assessments := newConsensusFixture()

	_, err := svc.Get(ctx, hr, other.UserID)
	assert.ErrorIs(t, err, ErrNoConsensus)

	_, err = svc.Get(ctx, other, employee.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	view, err := svc.Get(ctx, employee, employee.UserID)
	require.NoError(t, err, "employees read their own consensus")
	assert.Equal(t, employee.UserID, view.EmployeeID)

	// an in-progress assessor assessment breaks the pair
	assessments.assessments[2].Status = models.AssessmentStatusInProgress
	_, err = svc.Get(ctx, hr, employee.UserID)
	assert.ErrorIs(t, err, ErrNoConsensus)
}

func TestConsensusList(t *testing.T) {
	ctx := context.Background()
	svc, assessments := newConsensusFixture()

	views, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, employee.UserID, views[0].EmployeeID)

	views, err = svc.List(ctx, assessor)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	assessments.put(completed(4, models.AssessmentTypeAssessor, other.UserID, uintPtr(hr.UserID), rated(1, 3, "")))
	views, err = svc.List(ctx, assessor)
	require.NoError(t, err)
	require.Len(t, views, 1, "assessors only see the views they evaluated")
	assert.Equal(t, employee.UserID, views[0].EmployeeID)

	views, err = svc.List(ctx, hr)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	_, err = svc.List(ctx, employee)
	assert.ErrorIs(t, err, ErrForbidden)
}
