package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"competency-assessment/internal/models"
)

// SessionRepository tracks issued access tokens by JTI
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, jti, expires_at, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	session.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		session.UserID,
		session.JTI,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", translate(err))
	}
	return nil
}

// IsActive reports whether a non-expired session exists for the JTI
func (r *SessionRepository) IsActive(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sessions WHERE jti = $1 AND expires_at > $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, jti, time.Now()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return exists, nil
}

// DeleteByJTI removes the session of a token
func (r *SessionRepository) DeleteByJTI(ctx context.Context, jti string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE jti = $1`, jti); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions and returns how many were removed
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
