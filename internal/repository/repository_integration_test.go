package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/models"
	"competency-assessment/internal/repository"
	"competency-assessment/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pg := testutil.SetupPostgres(t)
	ctx := context.Background()

	t.Run("assessment lifecycle", func(t *testing.T) {
		f := testutil.SetupFixtures(t, pg.DB, "lifecycle")
		repo := repository.NewAssessmentRepository(pg.DB)

		a := &models.Assessment{TenantID: f.TenantID, Type: models.AssessmentTypeSelf, EmployeeID: f.Employee.ID}
		require.NoError(t, repo.Create(ctx, a))
		assert.Equal(t, models.AssessmentStatusPending, a.Status)

		first := &models.CompetencyRating{AssessmentID: a.ID, CompetencyID: f.Competencies[0].ID, Rating: 2}
		require.NoError(t, repo.UpsertRating(ctx, first))
		second := &models.CompetencyRating{AssessmentID: a.ID, CompetencyID: f.Competencies[0].ID, Rating: 4, CommentCiphertext: ptr("solid")}
		require.NoError(t, repo.UpsertRating(ctx, second))
		assert.Equal(t, first.ID, second.ID, "upsert keeps one row per competency")

		got, err := repo.GetByID(ctx, f.TenantID, a.ID)
		require.NoError(t, err)
		require.Len(t, got.Ratings, 1)
		assert.Equal(t, 4, got.Ratings[0].Rating)
		require.NotNil(t, got.Ratings[0].CommentCiphertext)
		assert.Equal(t, "solid", *got.Ratings[0].CommentCiphertext)

		now := time.Now()
		got.Status = models.AssessmentStatusInProgress
		got.StartedAt = &now
		require.NoError(t, repo.UpdateStatus(ctx, got, models.AssessmentStatusPending))

		// a second writer still believing the assessment is PENDING loses
		assert.ErrorIs(t, repo.UpdateStatus(ctx, got, models.AssessmentStatusPending), repository.ErrConflict)

		open, err := repo.List(ctx, repository.AssessmentFilter{
			TenantID: f.TenantID,
			Statuses: []models.AssessmentStatus{models.AssessmentStatusInProgress},
		})
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, a.ID, open[0].ID)
		require.NotNil(t, open[0].StartedAt)

		done, err := repo.List(ctx, repository.AssessmentFilter{
			TenantID: f.TenantID,
			Statuses: []models.AssessmentStatus{models.AssessmentStatusCompleted},
		})
		require.NoError(t, err)
		assert.Empty(t, done)

		stale, err := repo.ListStale(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.NotEmpty(t, stale)

		require.NoError(t, repo.Delete(ctx, f.TenantID, a.ID))
		_, err = repo.GetByID(ctx, f.TenantID, a.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ratings freeze with the status", func(t *testing.T) {
		f := testutil.SetupFixtures(t, pg.DB, "freeze")
		repo := repository.NewAssessmentRepository(pg.DB)

		a := &models.Assessment{TenantID: f.TenantID, Type: models.AssessmentTypeSelf, EmployeeID: f.Employee.ID}
		require.NoError(t, repo.Create(ctx, a))

		now := time.Now()
		a.Status = models.AssessmentStatusInProgress
		a.StartedAt = &now
		require.NoError(t, repo.UpdateStatus(ctx, a, models.AssessmentStatusPending))

		unrated := &models.CompetencyRating{AssessmentID: a.ID, CompetencyID: f.Competencies[0].ID, Rating: 0}
		require.NoError(t, repo.UpsertRating(ctx, unrated))

		a.Status = models.AssessmentStatusCompleted
		a.CompletedAt = &now
		assert.ErrorIs(t, repo.UpdateStatus(ctx, a, models.AssessmentStatusInProgress), repository.ErrNothingRated)

		rated := &models.CompetencyRating{AssessmentID: a.ID, CompetencyID: f.Competencies[0].ID, Rating: 3}
		require.NoError(t, repo.UpsertRating(ctx, rated))
		require.NoError(t, repo.UpdateStatus(ctx, a, models.AssessmentStatusInProgress))

		late := &models.CompetencyRating{AssessmentID: a.ID, CompetencyID: f.Competencies[0].ID, Rating: 1}
		assert.ErrorIs(t, repo.UpsertRating(ctx, late), repository.ErrFrozen)
		fresh := &models.CompetencyRating{AssessmentID: a.ID, CompetencyID: f.Competencies[1].ID, Rating: 5}
		assert.ErrorIs(t, repo.UpsertRating(ctx, fresh), repository.ErrFrozen)

		got, err := repo.GetByID(ctx, f.TenantID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AssessmentStatusCompleted, got.Status)
		require.Len(t, got.Ratings, 1)
		assert.Equal(t, 3, got.Ratings[0].Rating)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		mine := testutil.SetupFixtures(t, pg.DB, "mine")
		theirs := testutil.SetupFixtures(t, pg.DB, "theirs")
		repo := repository.NewAssessmentRepository(pg.DB)

		a := &models.Assessment{TenantID: mine.TenantID, Type: models.AssessmentTypeSelf, EmployeeID: mine.Employee.ID}
		require.NoError(t, repo.Create(ctx, a))

		_, err := repo.GetByID(ctx, theirs.TenantID, a.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, theirs.TenantID, a.ID), repository.ErrNotFound)

		users := repository.NewUserRepository(pg.DB)
		_, err = users.GetByID(ctx, theirs.TenantID, mine.Employee.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("assessor directory", func(t *testing.T) {
		f := testutil.SetupFixtures(t, pg.DB, "directory")
		org := repository.NewOrganizationRepository(pg.DB)

		ok, err := org.IsAssessorOf(ctx, f.TenantID, f.Assessor.ID, f.Employee.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		f.AssignAssessor(t)
		ok, err = org.IsAssessorOf(ctx, f.TenantID, f.Assessor.ID, f.Employee.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		dup := &models.AssessorAssignment{TenantID: f.TenantID, EmployeeID: f.Employee.ID, AssessorID: f.Assessor.ID}
		assert.ErrorIs(t, org.CreateAssessorAssignment(ctx, dup), repository.ErrConflict)

		f.AssignJob(t, f.Employee.ID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		assignments, err := org.ListJobAssignments(ctx, f.TenantID, &f.Employee.ID)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Equal(t, f.Job.ID, assignments[0].JobID)
	})

	t.Run("profile", func(t *testing.T) {
		f := testutil.SetupFixtures(t, pg.DB, "profile")
		repo := repository.NewProfileRepository(pg.DB)

		_, err := repo.Get(ctx, f.TenantID, f.Employee.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		p := &models.EmployeeProfile{
			UserID:              f.Employee.ID,
			TenantID:            f.TenantID,
			DepartmentID:        &f.Department.ID,
			Phone:               ptr("+49 30 1234"),
			OnboardingCompleted: true,
		}
		require.NoError(t, repo.Save(ctx, p))

		lock := time.Now().Add(12 * time.Hour).UTC().Truncate(time.Second)
		p.IsLockedUntil = &lock
		p.Address = ptr("Main Street 1")
		require.NoError(t, repo.Save(ctx, p))

		got, err := repo.Get(ctx, f.TenantID, f.Employee.ID)
		require.NoError(t, err)
		assert.True(t, got.OnboardingCompleted)
		require.NotNil(t, got.DepartmentID)
		assert.Equal(t, f.Department.ID, *got.DepartmentID)
		require.NotNil(t, got.Address)
		assert.Equal(t, "Main Street 1", *got.Address)
		require.NotNil(t, got.IsLockedUntil)
		assert.True(t, lock.Equal(*got.IsLockedUntil))
	})

	t.Run("sessions", func(t *testing.T) {
		f := testutil.SetupFixtures(t, pg.DB, "sessions")
		repo := repository.NewSessionRepository(pg.DB)

		live := &models.Session{UserID: f.Employee.ID, JTI: "live-jti", ExpiresAt: time.Now().Add(time.Hour)}
		expired := &models.Session{UserID: f.Employee.ID, JTI: "expired-jti", ExpiresAt: time.Now().Add(-time.Hour)}
		require.NoError(t, repo.Create(ctx, live))
		require.NoError(t, repo.Create(ctx, expired))

		active, err := repo.IsActive(ctx, "live-jti")
		require.NoError(t, err)
		assert.True(t, active)

		active, err = repo.IsActive(ctx, "expired-jti")
		require.NoError(t, err)
		assert.False(t, active)

		removed, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, int64(1))

		require.NoError(t, repo.DeleteByJTI(ctx, "live-jti"))
		active, err = repo.IsActive(ctx, "live-jti")
		require.NoError(t, err)
		assert.False(t, active)
	})
}
