package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"competency-assessment/internal/models"
)

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (tenant_id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.TenantID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
		now,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user of a tenant by ID
func (r *UserRepository) GetByID(ctx context.Context, tenantID, id uint) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = $2`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translate(err))
	}
	return user, nil
}

// GetByEmail retrieves a user by email. Emails are unique across tenants.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", translate(err))
	}
	return user, nil
}

// List returns the users of a tenant ordered by id
func (r *UserRepository) List(ctx context.Context, tenantID uint) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer closeRows(rows)

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateRole changes the role and active flag of a user
func (r *UserRepository) UpdateRole(ctx context.Context, tenantID, id uint, role string, isActive bool) error {
	query := `UPDATE users SET role = $1, is_active = $2, updated_at = $3 WHERE tenant_id = $4 AND id = $5`

	res, err := r.db.ExecContext(ctx, query, role, isActive, time.Now(), tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	return requireAffected(res)
}
