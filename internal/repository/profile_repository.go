package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"competency-assessment/internal/models"
)

// ProfileRepository stores employee self-service profiles
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile of a user. A user that never saved one gets ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context, tenantID, userID uint) (*models.EmployeeProfile, error) {
	query := `
		SELECT user_id, tenant_id, department_id, phone, address, photo_url,
		       onboarding_completed, is_locked_until, updated_at
		FROM employee_profiles
		WHERE tenant_id = $1 AND user_id = $2
	`

	p := &models.EmployeeProfile{}
	err := r.db.QueryRowContext(ctx, query, tenantID, userID).Scan(
		&p.UserID,
		&p.TenantID,
		&p.DepartmentID,
		&p.Phone,
		&p.Address,
		&p.PhotoURL,
		&p.OnboardingCompleted,
		&p.IsLockedUntil,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", translate(err))
	}
	return p, nil
}

// Save inserts or replaces a profile
func (r *ProfileRepository) Save(ctx context.Context, p *models.EmployeeProfile) error {
	query := `
		INSERT INTO employee_profiles
			(user_id, tenant_id, department_id, phone, address, photo_url, onboarding_completed, is_locked_until, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			department_id = EXCLUDED.department_id,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			photo_url = EXCLUDED.photo_url,
			onboarding_completed = EXCLUDED.onboarding_completed,
			is_locked_until = EXCLUDED.is_locked_until,
			updated_at = EXCLUDED.updated_at
		WHERE employee_profiles.tenant_id = EXCLUDED.tenant_id
	`

	p.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		p.UserID,
		p.TenantID,
		p.DepartmentID,
		p.Phone,
		p.Address,
		p.PhotoURL,
		p.OnboardingCompleted,
		p.IsLockedUntil,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", translate(err))
	}
	return requireAffected(res)
}
