package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/config"
	"competency-assessment/internal/models"
)

type fakeAssessments struct {
	stale  []models.Assessment
	before time.Time
}

func (f *fakeAssessments) ListStale(_ context.Context, before time.Time) ([]models.Assessment, error) {
	f.before = before
	return f.stale, nil
}

type fakeUsers map[uint]*models.User

func (f fakeUsers) GetByID(_ context.Context, _ uint, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

type sentReminder struct {
	to, recipient, employee string
	assessmentID            uint
	idle                    time.Duration
}

type fakeReminders struct {
	mu   sync.Mutex
	sent []sentReminder
}

func (f *fakeReminders) SendStaleAssessmentReminder(to, recipientName, employeeName string, assessmentID uint, _, _ string, idle time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentReminder{to, recipientName, employeeName, assessmentID, idle})
	return nil
}

type fakeSessions struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSessions) DeleteExpired(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 2, nil
}

func (f *fakeSessions) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSendStaleReminders(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	assessorID := uint(2)

	assessments := &fakeAssessments{stale: []models.Assessment{
		{ID: 10, TenantID: 1, Type: models.AssessmentTypeSelf, Status: models.AssessmentStatusPending, EmployeeID: 1, UpdatedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: 11, TenantID: 1, Type: models.AssessmentTypeAssessor, Status: models.AssessmentStatusInProgress, EmployeeID: 1, AssessorID: &assessorID, UpdatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: 12, TenantID: 1, Type: models.AssessmentTypeAssessor, Status: models.AssessmentStatusPending, EmployeeID: 1},
		{ID: 13, TenantID: 1, Type: models.AssessmentTypeSelf, Status: models.AssessmentStatusPending, EmployeeID: 3},
		{ID: 14, TenantID: 1, Type: models.AssessmentTypeSelf, Status: models.AssessmentStatusPending, EmployeeID: 99},
	}}
	users := fakeUsers{
		1: {ID: 1, Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", IsActive: true},
		2: {ID: 2, Email: "lead@example.com", FirstName: "Alex", LastName: "Lead", IsActive: true},
		3: {ID: 3, Email: "gone@example.com", FirstName: "Former", IsActive: false},
	}
	reminders := &fakeReminders{}

	s := NewScheduler(assessments, users, reminders, &fakeSessions{}, &config.SchedulerConfig{StaleAfter: 7 * 24 * time.Hour})
	s.now = func() time.Time { return now }

	s.SendStaleReminders(context.Background())

	assert.Equal(t, now.Add(-7*24*time.Hour), assessments.before)
	require.Len(t, reminders.sent, 2)
	assert.Equal(t, sentReminder{"jane@example.com", "Jane Doe", "Jane Doe", 10, 8 * 24 * time.Hour}, reminders.sent[0])
	assert.Equal(t, sentReminder{"lead@example.com", "Alex Lead", "Jane Doe", 11, 10 * 24 * time.Hour}, reminders.sent[1])
}

func TestStartAndStop(t *testing.T) {
	sessions := &fakeSessions{}
	s := NewScheduler(&fakeAssessments{}, fakeUsers{}, &fakeReminders{}, sessions, &config.SchedulerConfig{
		EnableReminders:  false,
		ReminderInterval: time.Hour,
	})

	s.Start()
	require.Eventually(t, func() bool { return sessions.Calls() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()

	assert.Equal(t, 1, sessions.Calls())
}
