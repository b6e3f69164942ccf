package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"competency-assessment/internal/config"
	"competency-assessment/internal/models"
)

// StaleAssessments lists open assessments not touched since a given time
type StaleAssessments interface {
	ListStale(ctx context.Context, before time.Time) ([]models.Assessment, error)
}

// Users resolves reminder recipients
type Users interface {
	GetByID(ctx context.Context, tenantID, id uint) (*models.User, error)
}

// Reminders delivers reminder messages
type Reminders interface {
	SendStaleAssessmentReminder(to, recipientName, employeeName string, assessmentID uint, assessmentType, status string, idle time.Duration) error
}

// Sessions purges expired login sessions
type Sessions interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance tasks
type Scheduler struct {
	assessments StaleAssessments
	users       Users
	reminders   Reminders
	sessions    Sessions
	config      *config.SchedulerConfig
	now         func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(
	assessments StaleAssessments,
	users Users,
	reminders Reminders,
	sessions Sessions,
	cfg *config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		assessments: assessments,
		users:       users,
		reminders:   reminders,
		sessions:    sessions,
		config:      cfg,
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}
}

// Start starts all scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler",
		"reminders_enabled", s.config.EnableReminders,
		"reminder_interval", s.config.ReminderInterval,
		"stale_after", s.config.StaleAfter,
	)

	if s.config.EnableReminders {
		s.scheduleIntervalTask(s.config.ReminderInterval, "stale_assessment_reminders", s.SendStaleReminders)
	}
	s.scheduleIntervalTask(time.Hour, "session_cleanup", s.CleanupSessions)
}

// Stop stops the scheduler and waits for running tasks to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	close(s.stopChan)
	s.wg.Wait()
}

// scheduleIntervalTask runs task now and then every interval until Stop
func (s *Scheduler) scheduleIntervalTask(interval time.Duration, taskName string, task func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-s.stopChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		slog.Info("Running interval task", "task", taskName)
		task(ctx)

		for {
			select {
			case <-ticker.C:
				slog.Info("Running interval task", "task", taskName)
				task(ctx)
			case <-s.stopChan:
				return
			}
		}
	}()
}

// SendStaleReminders emails the owner of every assessment open for longer than StaleAfter.
// The employee owns a SELF assessment, the assessor an ASSESSOR assessment.
func (s *Scheduler) SendStaleReminders(ctx context.Context) {
	now := s.now()
	stale, err := s.assessments.ListStale(ctx, now.Add(-s.config.StaleAfter))
	if err != nil {
		slog.Error("Failed to list stale assessments", "error", err)
		return
	}

	sent := 0
	for _, a := range stale {
		recipientID := a.EmployeeID
		if a.Type == models.AssessmentTypeAssessor {
			if a.AssessorID == nil {
				continue
			}
			recipientID = *a.AssessorID
		}

		recipient, err := s.users.GetByID(ctx, a.TenantID, recipientID)
		if err != nil {
			slog.Error("Failed to get reminder recipient", "assessment_id", a.ID, "user_id", recipientID, "error", err)
			continue
		}
		if !recipient.IsActive {
			continue
		}

		employeeName := recipient.FullName()
		if recipientID != a.EmployeeID {
			employee, err := s.users.GetByID(ctx, a.TenantID, a.EmployeeID)
			if err != nil {
				slog.Error("Failed to get employee", "assessment_id", a.ID, "user_id", a.EmployeeID, "error", err)
				continue
			}
			employeeName = employee.FullName()
		}

		err = s.reminders.SendStaleAssessmentReminder(
			recipient.Email,
			recipient.FullName(),
			employeeName,
			a.ID,
			string(a.Type),
			string(a.Status),
			now.Sub(a.UpdatedAt),
		)
		if err != nil {
			slog.Error("Failed to send reminder", "assessment_id", a.ID, "to", recipient.Email, "error", err)
			continue
		}
		sent++
	}

	slog.Info("Stale assessment reminders sent", "count", sent, "stale", len(stale))
}

// CleanupSessions deletes expired sessions
func (s *Scheduler) CleanupSessions(ctx context.Context) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		slog.Error("Failed to delete expired sessions", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Expired sessions deleted", "count", n)
	}
}
