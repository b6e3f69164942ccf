package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/models"
	"competency-assessment/internal/repository"
)

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) SendAssessorAssigned(to, assessorName, employeeName string) error {
	f.sent = append(f.sent, to+": "+assessorName+" assesses "+employeeName)
	return f.err
}

func TestAssignAssessor(t *testing.T) {
	ctx := context.Background()
	org := newFakeOrg()
	notifier := &fakeNotifier{}
	svc := NewOrganizationService(org, testUsers(), notifier, NewAuditService(&fakeAudit{}))

	a, err := svc.AssignAssessor(ctx, hr, AssessorAssignmentRequest{EmployeeID: other.UserID, AssessorID: assessor.UserID})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Equal(t, []string{"lead@example.com: Alex Lead assesses Sam Smith"}, notifier.sent)

	_, err = svc.AssignAssessor(ctx, hr, AssessorAssignmentRequest{EmployeeID: other.UserID, AssessorID: assessor.UserID})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = svc.AssignAssessor(ctx, hr, AssessorAssignmentRequest{EmployeeID: assessor.UserID, AssessorID: assessor.UserID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AssignAssessor(ctx, hr, AssessorAssignmentRequest{EmployeeID: 99, AssessorID: assessor.UserID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AssignAssessor(ctx, assessor, AssessorAssignmentRequest{EmployeeID: other.UserID, AssessorID: hr.UserID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAssignAssessorSurvivesMailFailure(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := NewOrganizationService(newFakeOrg(), testUsers(), notifier, nil)

	_, err := svc.AssignAssessor(ctx, admin, AssessorAssignmentRequest{EmployeeID: other.UserID, AssessorID: hr.UserID})
	require.NoError(t, err)
	assert.Len(t, notifier.sent, 1)
}

func TestAssignmentVisibility(t *testing.T) {
	ctx := context.Background()
	org := newFakeOrg()
	org.assessorOf = append(org.assessorOf, models.AssessorAssignment{ID: 2, TenantID: 1, EmployeeID: 5, AssessorID: 2})
	svc := NewOrganizationService(org, testUsers(), nil, nil)

	all, err := svc.ListAssessorAssignments(ctx, hr, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListAssessorAssignments(ctx, assessor, uintPtr(hr.UserID))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, assessor.UserID, mine[0].AssessorID)

	_, err = svc.ListAssessorAssignments(ctx, employee, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	jobs, err := svc.ListJobAssignments(ctx, other, nil)
	require.NoError(t, err)
	assert.Empty(t, jobs, "employees only see their own job assignments")
}

func TestCreateJobAssignment(t *testing.T) {
	ctx := context.Background()
	svc := NewOrganizationService(newFakeOrg(), testUsers(), nil, nil)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	_, err := svc.CreateJobAssignment(ctx, hr, JobAssignmentRequest{EmployeeID: other.UserID, JobID: 1, StartDate: start, EndDate: &end})
	assert.ErrorIs(t, err, ErrValidation)

	a, err := svc.CreateJobAssignment(ctx, hr, JobAssignmentRequest{EmployeeID: other.UserID, JobID: 1, StartDate: start})
	require.NoError(t, err)
	assert.Equal(t, other.UserID, a.EmployeeID)

	_, err = svc.CreateJobAssignment(ctx, employee, JobAssignmentRequest{EmployeeID: other.UserID, JobID: 1, StartDate: start})
	assert.ErrorIs(t, err, ErrForbidden)
}
