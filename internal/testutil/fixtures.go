package testutil

import (
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"competency-assessment/internal/models"
)

// Fixtures holds one tenant with a user per role and a small competency framework
type Fixtures struct {
	DB           *sql.DB
	TenantID     uint
	Admin        *models.User
	HR           *models.User
	Assessor     *models.User
	Employee     *models.User
	Department   models.Department
	Job          models.Job
	Competencies []models.Competency
}

// FixturePassword is the password of every fixture user
const FixturePassword = "Password123!"

// SetupFixtures creates test data for a fresh tenant named name
func SetupFixtures(t *testing.T, db *sql.DB, name string) *Fixtures {
	t.Helper()

	f := &Fixtures{DB: db}

	if err := db.QueryRow(`INSERT INTO tenants (name) VALUES ($1) RETURNING id`, name).Scan(&f.TenantID); err != nil {
		t.Fatalf("Failed to create tenant: %v", err)
	}

	f.Admin = f.CreateUser(t, "admin@"+name+".test", "Ada", "Admin", models.RoleAdmin)
	f.HR = f.CreateUser(t, "hr@"+name+".test", "Hana", "Reyes", models.RoleHR)
	f.Assessor = f.CreateUser(t, "lead@"+name+".test", "Alex", "Lead", models.RoleAssessor)
	f.Employee = f.CreateUser(t, "jane@"+name+".test", "Jane", "Doe", models.RoleEmployee)

	f.Department = models.Department{TenantID: f.TenantID, Name: "Engineering"}
	if err := db.QueryRow(
		`INSERT INTO departments (tenant_id, name) VALUES ($1, $2) RETURNING id`,
		f.TenantID, f.Department.Name,
	).Scan(&f.Department.ID); err != nil {
		t.Fatalf("Failed to create department: %v", err)
	}

	f.Job = models.Job{TenantID: f.TenantID, DepartmentID: f.Department.ID, Title: "Developer"}
	if err := db.QueryRow(
		`INSERT INTO jobs (tenant_id, department_id, title) VALUES ($1, $2, $3) RETURNING id`,
		f.TenantID, f.Department.ID, f.Job.Title,
	).Scan(&f.Job.ID); err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	var domainID, categoryID uint
	if err := db.QueryRow(
		`INSERT INTO competency_domains (tenant_id, name) VALUES ($1, 'Core') RETURNING id`, f.TenantID,
	).Scan(&domainID); err != nil {
		t.Fatalf("Failed to create domain: %v", err)
	}
	if err := db.QueryRow(
		`INSERT INTO competency_categories (tenant_id, domain_id, name) VALUES ($1, $2, 'Collaboration') RETURNING id`,
		f.TenantID, domainID,
	).Scan(&categoryID); err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	for _, name := range []string{"Communication", "Teamwork", "Ownership"} {
		c := models.Competency{TenantID: f.TenantID, CategoryID: categoryID, Name: name}
		if err := db.QueryRow(
			`INSERT INTO competencies (tenant_id, category_id, name) VALUES ($1, $2, $3) RETURNING id`,
			f.TenantID, categoryID, name,
		).Scan(&c.ID); err != nil {
			t.Fatalf("Failed to create competency: %v", err)
		}
		f.Competencies = append(f.Competencies, c)
	}

	return f
}

// CreateUser inserts an active user of the fixture tenant
func (f *Fixtures) CreateUser(t *testing.T, email, firstName, lastName, role string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		TenantID:     f.TenantID,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
	}
	err = f.DB.QueryRow(
		`INSERT INTO users (tenant_id, email, password_hash, first_name, last_name, role)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		user.TenantID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	return user
}

// AssignJob places the employee in the fixture job from start
func (f *Fixtures) AssignJob(t *testing.T, employeeID uint, start time.Time) {
	t.Helper()

	if _, err := f.DB.Exec(
		`INSERT INTO job_assignments (tenant_id, employee_id, job_id, start_date) VALUES ($1, $2, $3, $4)`,
		f.TenantID, employeeID, f.Job.ID, start,
	); err != nil {
		t.Fatalf("Failed to assign job: %v", err)
	}
}

// AssignAssessor links the fixture assessor to the fixture employee
func (f *Fixtures) AssignAssessor(t *testing.T) {
	t.Helper()

	if _, err := f.DB.Exec(
		`INSERT INTO assessor_assignments (tenant_id, employee_id, assessor_id) VALUES ($1, $2, $3)`,
		f.TenantID, f.Employee.ID, f.Assessor.ID,
	); err != nil {
		t.Fatalf("Failed to assign assessor: %v", err)
	}
}
