package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"competency-assessment/internal/models"
)

const assessmentColumns = `id, tenant_id, type, status, employee_id, assessor_id,
	created_at, updated_at, started_at, completed_at, reviewed_at`

// AssessmentFilter narrows List. Zero values mean "any".
type AssessmentFilter struct {
	TenantID   uint
	EmployeeID *uint
	AssessorID *uint
	Type       models.AssessmentType
	Statuses   []models.AssessmentStatus
}

// AssessmentRepository stores assessments and their competency ratings
type AssessmentRepository struct {
	db *sql.DB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func scanAssessment(row interface{ Scan(...any) error }) (*models.Assessment, error) {
	a := &models.Assessment{}
	err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.Type,
		&a.Status,
		&a.EmployeeID,
		&a.AssessorID,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.StartedAt,
		&a.CompletedAt,
		&a.ReviewedAt,
	)
	return a, err
}

// Create stores a new assessment in the PENDING state
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	query := `
		INSERT INTO assessments (tenant_id, type, status, employee_id, assessor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`

	now := time.Now()
	a.Status = models.AssessmentStatusPending
	err := r.db.QueryRowContext(ctx, query, a.TenantID, a.Type, a.Status, a.EmployeeID, a.AssessorID, now).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", translate(err))
	}
	a.CreatedAt, a.UpdatedAt = now, now
	a.Ratings = []models.CompetencyRating{}
	return nil
}

// GetByID retrieves an assessment of a tenant with its ratings
func (r *AssessmentRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE tenant_id = $1 AND id = $2`

	a, err := scanAssessment(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", translate(err))
	}

	ratings, err := r.ratingsFor(ctx, []uint{a.ID})
	if err != nil {
		return nil, err
	}
	a.Ratings = ratings[a.ID]
	if a.Ratings == nil {
		a.Ratings = []models.CompetencyRating{}
	}
	return a, nil
}

// List returns the assessments matching f with their ratings, ordered by id
func (r *AssessmentRepository) List(ctx context.Context, f AssessmentFilter) ([]models.Assessment, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{f.TenantID}

	if f.EmployeeID != nil {
		args = append(args, *f.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if f.AssessorID != nil {
		args = append(args, *f.AssessorID)
		conditions = append(conditions, fmt.Sprintf("assessor_id = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY id`

	assessments, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := r.attachRatings(ctx, assessments); err != nil {
		return nil, err
	}
	return assessments, nil
}

// ListStale returns open assessments of every tenant not touched since before
func (r *AssessmentRepository) ListStale(ctx context.Context, before time.Time) ([]models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments
		WHERE status IN ('PENDING', 'IN_PROGRESS') AND updated_at < $1
		ORDER BY tenant_id, id`

	return r.query(ctx, query, before)
}

func (r *AssessmentRepository) query(ctx context.Context, query string, args ...any) ([]models.Assessment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer closeRows(rows)

	assessments := []models.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

func (r *AssessmentRepository) attachRatings(ctx context.Context, assessments []models.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}

	ids := make([]uint, len(assessments))
	for i, a := range assessments {
		ids[i] = a.ID
	}

	ratings, err := r.ratingsFor(ctx, ids)
	if err != nil {
		return err
	}

	for i := range assessments {
		assessments[i].Ratings = ratings[assessments[i].ID]
		if assessments[i].Ratings == nil {
			assessments[i].Ratings = []models.CompetencyRating{}
		}
	}
	return nil
}

// ratingsFor loads the ratings of several assessments in one round trip, in id order
func (r *AssessmentRepository) ratingsFor(ctx context.Context, assessmentIDs []uint) (map[uint][]models.CompetencyRating, error) {
	ids := make([]int64, len(assessmentIDs))
	for i, id := range assessmentIDs {
		ids[i] = int64(id)
	}

	query := `
		SELECT id, assessment_id, competency_id, rating, comment_ciphertext, created_at, updated_at
		FROM competency_ratings
		WHERE assessment_id = ANY($1)
		ORDER BY assessment_id, id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	defer closeRows(rows)

	byAssessment := make(map[uint][]models.CompetencyRating, len(assessmentIDs))
	for rows.Next() {
		var cr models.CompetencyRating
		if err := rows.Scan(
			&cr.ID,
			&cr.AssessmentID,
			&cr.CompetencyID,
			&cr.Rating,
			&cr.CommentCiphertext,
			&cr.CreatedAt,
			&cr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		byAssessment[cr.AssessmentID] = append(byAssessment[cr.AssessmentID], cr)
	}
	return byAssessment, rows.Err()
}

// UpdateStatus moves an assessment from one status to another and stamps the matching
// timestamp column. ErrConflict means the stored status was no longer from. Completing
// fails with ErrNothingRated unless a non-zero rating is stored.
//
// The assessment row is locked first, the same as in UpsertRating, so a rating write and a
// status change never interleave.
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, a *models.Assessment, from models.AssessmentStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current models.AssessmentStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM assessments WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		a.TenantID, a.ID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflict
		}
		return fmt.Errorf("failed to lock assessment: %w", err)
	}
	if current != from {
		return ErrConflict
	}

	if a.Status == models.AssessmentStatusCompleted {
		var rated bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM competency_ratings WHERE assessment_id = $1 AND rating > 0)`,
			a.ID,
		).Scan(&rated); err != nil {
			return fmt.Errorf("failed to check ratings: %w", err)
		}
		if !rated {
			return ErrNothingRated
		}
	}

	query := `
		UPDATE assessments
		SET status = $1, updated_at = $2, started_at = $3, completed_at = $4, reviewed_at = $5
		WHERE tenant_id = $6 AND id = $7
	`

	updatedAt := time.Now()
	if _, err := tx.ExecContext(ctx, query,
		a.Status,
		updatedAt,
		a.StartedAt,
		a.CompletedAt,
		a.ReviewedAt,
		a.TenantID,
		a.ID,
	); err != nil {
		return fmt.Errorf("failed to update assessment status: %w", translate(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status change: %w", err)
	}
	a.UpdatedAt = updatedAt
	return nil
}

// UpsertRating stores the rating of one competency, replacing an earlier one, and bumps
// the assessment's updated_at. ErrFrozen means the assessment is no longer open.
func (r *AssessmentRepository) UpsertRating(ctx context.Context, cr *models.CompetencyRating) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()

	// Locks the assessment row until commit
	res, err := tx.ExecContext(ctx,
		`UPDATE assessments SET updated_at = $1 WHERE id = $2 AND status IN ($3, $4)`,
		now, cr.AssessmentID, models.AssessmentStatusPending, models.AssessmentStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to touch assessment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrFrozen
	}

	query := `
		INSERT INTO competency_ratings (assessment_id, competency_id, rating, comment_ciphertext, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (assessment_id, competency_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment_ciphertext = EXCLUDED.comment_ciphertext, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(ctx, query, cr.AssessmentID, cr.CompetencyID, cr.Rating, cr.CommentCiphertext, now).
		Scan(&cr.ID, &cr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save rating: %w", translate(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating: %w", err)
	}
	cr.UpdatedAt = now
	return nil
}

// Delete removes an assessment with its ratings
func (r *AssessmentRepository) Delete(ctx context.Context, tenantID, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assessments WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	return requireAffected(res)
}
