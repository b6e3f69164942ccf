package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"competency-assessment/internal/models"
)

// OrganizationRepository stores departments, jobs, job assignments and assessor assignments
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// CreateDepartment creates a department
func (r *OrganizationRepository) CreateDepartment(ctx context.Context, d *models.Department) error {
	query := `
		INSERT INTO departments (tenant_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`

	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, d.TenantID, d.Name, now).Scan(&d.ID); err != nil {
		return fmt.Errorf("failed to create department: %w", translate(err))
	}
	d.CreatedAt, d.UpdatedAt = now, now
	return nil
}

// GetDepartment retrieves a department of a tenant
func (r *OrganizationRepository) GetDepartment(ctx context.Context, tenantID, id uint) (*models.Department, error) {
	query := `SELECT id, tenant_id, name, created_at, updated_at FROM departments WHERE tenant_id = $1 AND id = $2`

	d := &models.Department{}
	if err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(&d.ID, &d.TenantID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to get department: %w", translate(err))
	}
	return d, nil
}

// ListDepartments returns the departments of a tenant
func (r *OrganizationRepository) ListDepartments(ctx context.Context, tenantID uint) ([]models.Department, error) {
	query := `SELECT id, tenant_id, name, created_at, updated_at FROM departments WHERE tenant_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer closeRows(rows)

	departments := []models.Department{}
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// UpdateDepartment renames a department
func (r *OrganizationRepository) UpdateDepartment(ctx context.Context, d *models.Department) error {
	d.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE departments SET name = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`,
		d.Name, d.UpdatedAt, d.TenantID, d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", translate(err))
	}
	return requireAffected(res)
}

// DeleteDepartment deletes a department with its jobs
func (r *OrganizationRepository) DeleteDepartment(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "departments", tenantID, id)
}

// CreateJob creates a job inside a department of the same tenant
func (r *OrganizationRepository) CreateJob(ctx context.Context, j *models.Job) error {
	query := `
		INSERT INTO jobs (tenant_id, department_id, title, created_at, updated_at)
		SELECT $1, d.id, $3, $4, $4
		FROM departments d WHERE d.tenant_id = $1 AND d.id = $2
		RETURNING id
	`

	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, j.TenantID, j.DepartmentID, j.Title, now).Scan(&j.ID); err != nil {
		return fmt.Errorf("failed to create job: %w", translate(err))
	}
	j.CreatedAt, j.UpdatedAt = now, now
	return nil
}

// ListJobs returns the jobs of a tenant
func (r *OrganizationRepository) ListJobs(ctx context.Context, tenantID uint) ([]models.Job, error) {
	query := `
		SELECT id, tenant_id, department_id, title, created_at, updated_at
		FROM jobs WHERE tenant_id = $1 ORDER BY department_id, title
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer closeRows(rows)

	jobs := []models.Job{}
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.TenantID, &j.DepartmentID, &j.Title, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// DeleteJob deletes a job with its assignments
func (r *OrganizationRepository) DeleteJob(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "jobs", tenantID, id)
}

// CreateJobAssignment places an employee in a job
func (r *OrganizationRepository) CreateJobAssignment(ctx context.Context, a *models.JobAssignment) error {
	query := `
		INSERT INTO job_assignments (tenant_id, employee_id, job_id, start_date, end_date, created_at)
		SELECT $1, u.id, j.id, $4, $5, $6
		FROM users u, jobs j
		WHERE u.tenant_id = $1 AND u.id = $2 AND j.tenant_id = $1 AND j.id = $3
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, a.TenantID, a.EmployeeID, a.JobID, a.StartDate, a.EndDate, now).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create job assignment: %w", translate(err))
	}
	a.CreatedAt = now
	return nil
}

// ListJobAssignments returns job assignments of a tenant, optionally for one employee,
// newest start date first
func (r *OrganizationRepository) ListJobAssignments(ctx context.Context, tenantID uint, employeeID *uint) ([]models.JobAssignment, error) {
	query := `
		SELECT id, tenant_id, employee_id, job_id, start_date, end_date, created_at
		FROM job_assignments
		WHERE tenant_id = $1 AND ($2::INTEGER IS NULL OR employee_id = $2)
		ORDER BY employee_id, start_date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job assignments: %w", err)
	}
	defer closeRows(rows)

	assignments := []models.JobAssignment{}
	for rows.Next() {
		var a models.JobAssignment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.EmployeeID, &a.JobID, &a.StartDate, &a.EndDate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// DeleteJobAssignment removes a job assignment
func (r *OrganizationRepository) DeleteJobAssignment(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "job_assignments", tenantID, id)
}

// CreateAssessorAssignment links an assessor to an employee of the same tenant
func (r *OrganizationRepository) CreateAssessorAssignment(ctx context.Context, a *models.AssessorAssignment) error {
	query := `
		INSERT INTO assessor_assignments (tenant_id, employee_id, assessor_id, created_at)
		SELECT $1, e.id, s.id, $4
		FROM users e, users s
		WHERE e.tenant_id = $1 AND e.id = $2 AND s.tenant_id = $1 AND s.id = $3
		RETURNING id
	`

	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, a.TenantID, a.EmployeeID, a.AssessorID, now).Scan(&a.ID); err != nil {
		return fmt.Errorf("failed to create assessor assignment: %w", translate(err))
	}
	a.CreatedAt = now
	return nil
}

// ListAssessorAssignments returns assessor assignments of a tenant, optionally for one assessor
func (r *OrganizationRepository) ListAssessorAssignments(ctx context.Context, tenantID uint, assessorID *uint) ([]models.AssessorAssignment, error) {
	query := `
		SELECT id, tenant_id, employee_id, assessor_id, created_at
		FROM assessor_assignments
		WHERE tenant_id = $1 AND ($2::INTEGER IS NULL OR assessor_id = $2)
		ORDER BY employee_id, assessor_id
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, assessorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessor assignments: %w", err)
	}
	defer closeRows(rows)

	assignments := []models.AssessorAssignment{}
	for rows.Next() {
		var a models.AssessorAssignment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.EmployeeID, &a.AssessorID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessor assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// IsAssessorOf reports whether assessorID is assigned to evaluate employeeID
func (r *OrganizationRepository) IsAssessorOf(ctx context.Context, tenantID, assessorID, employeeID uint) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM assessor_assignments
			WHERE tenant_id = $1 AND assessor_id = $2 AND employee_id = $3
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, assessorID, employeeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check assessor assignment: %w", err)
	}
	return exists, nil
}

// DeleteAssessorAssignment removes an assessor assignment
func (r *OrganizationRepository) DeleteAssessorAssignment(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "assessor_assignments", tenantID, id)
}

// delete removes a tenant-owned row. table is always a package constant.
func (r *OrganizationRepository) delete(ctx context.Context, table string, tenantID, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, translate(err))
	}
	return requireAffected(res)
}
