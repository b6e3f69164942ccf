package models

import (
	"time"
)

// Role names
const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleAssessor = "assessor"
	RoleEmployee = "employee"
)

// AssessmentType distinguishes who evaluates the employee
type AssessmentType string

const (
	AssessmentTypeSelf      AssessmentType = "SELF"
	AssessmentTypeAssessor  AssessmentType = "ASSESSOR"
	AssessmentTypeConsensus AssessmentType = "CONSENSUS"
)

// AssessmentStatus is the lifecycle state of an assessment
type AssessmentStatus string

const (
	AssessmentStatusPending    AssessmentStatus = "PENDING"
	AssessmentStatusInProgress AssessmentStatus = "IN_PROGRESS"
	AssessmentStatusCompleted  AssessmentStatus = "COMPLETED"
	AssessmentStatusReviewed   AssessmentStatus = "REVIEWED"
)

// IsTerminal reports whether ratings of an assessment in this status are frozen
func (s AssessmentStatus) IsTerminal() bool {
	return s == AssessmentStatusCompleted || s == AssessmentStatusReviewed
}

// Valid reports whether the status is one of the known values
func (s AssessmentStatus) Valid() bool {
	switch s {
	case AssessmentStatusPending, AssessmentStatusInProgress, AssessmentStatusCompleted, AssessmentStatusReviewed:
		return true
	}
	return false
}

// Valid reports whether the type is one of the known values
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentTypeSelf, AssessmentTypeAssessor, AssessmentTypeConsensus:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID           uint      `json:"id" db:"id"`
	TenantID     uint      `json:"tenant_id" db:"tenant_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns first and last name joined by a space
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session represents an issued access token that has not been logged out
type Session struct {
	ID        uint      `json:"id" db:"id"`
	UserID    uint      `json:"user_id" db:"user_id"`
	JTI       string    `json:"jti" db:"jti"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	IPAddress string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uint      `json:"id" db:"id"`
	TenantID  uint      `json:"tenant_id" db:"tenant_id"`
	UserID    *uint     `json:"user_id,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Resource  string    `json:"resource" db:"resource"`
	Details   string    `json:"details,omitempty" db:"details"`
	IPAddress string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CompetencyDomain groups competency categories (e.g. "Leadership")
type CompetencyDomain struct {
	ID          uint      `json:"id" db:"id"`
	TenantID    uint      `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CompetencyCategory groups competencies within a domain
type CompetencyCategory struct {
	ID          uint      `json:"id" db:"id"`
	TenantID    uint      `json:"tenant_id" db:"tenant_id"`
	DomainID    uint      `json:"domain_id" db:"domain_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Competency is a named skill being rated (e.g. "Communication")
type Competency struct {
	ID          uint      `json:"id" db:"id"`
	TenantID    uint      `json:"tenant_id" db:"tenant_id"`
	CategoryID  uint      `json:"category_id" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProficiencyLevel is a labeled point on the rating scale (e.g. 3 = "Advanced")
type ProficiencyLevel struct {
	ID          uint      `json:"id" db:"id"`
	TenantID    uint      `json:"tenant_id" db:"tenant_id"`
	Level       int       `json:"level" db:"level"`
	Label       string    `json:"label" db:"label"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Department is an organizational unit
type Department struct {
	ID        uint      `json:"id" db:"id"`
	TenantID  uint      `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Job is a position within a department
type Job struct {
	ID           uint      `json:"id" db:"id"`
	TenantID     uint      `json:"tenant_id" db:"tenant_id"`
	DepartmentID uint      `json:"department_id" db:"department_id"`
	Title        string    `json:"title" db:"title"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// JobAssignment places an employee in a job for a period
type JobAssignment struct {
	ID         uint       `json:"id" db:"id"`
	TenantID   uint       `json:"tenant_id" db:"tenant_id"`
	EmployeeID uint       `json:"employee_id" db:"employee_id"`
	JobID      uint       `json:"job_id" db:"job_id"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// AssessorAssignment links an employee to the assessor who evaluates them
type AssessorAssignment struct {
	ID         uint      `json:"id" db:"id"`
	TenantID   uint      `json:"tenant_id" db:"tenant_id"`
	EmployeeID uint      `json:"employee_id" db:"employee_id"`
	AssessorID uint      `json:"assessor_id" db:"assessor_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CompetencyRating is one evaluator's judgement of one competency within one assessment.
// Rating 0 means "not yet rated".
type CompetencyRating struct {
	ID                uint      `json:"id" db:"id"`
	AssessmentID      uint      `json:"assessment_id" db:"assessment_id"`
	CompetencyID      uint      `json:"competency_id" db:"competency_id"`
	Rating            int       `json:"rating" db:"rating"`
	Comment           *string   `json:"comment,omitempty" db:"-"`
	CommentCiphertext *string   `json:"-" db:"comment_ciphertext"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Assessment is one evaluation pass over one employee
type Assessment struct {
	ID          uint               `json:"id" db:"id"`
	TenantID    uint               `json:"tenant_id" db:"tenant_id"`
	Type        AssessmentType     `json:"type" db:"type"`
	Status      AssessmentStatus   `json:"status" db:"status"`
	EmployeeID  uint               `json:"employee_id" db:"employee_id"`
	AssessorID  *uint              `json:"assessor_id,omitempty" db:"assessor_id"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
	StartedAt   *time.Time         `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty" db:"completed_at"`
	ReviewedAt  *time.Time         `json:"reviewed_at,omitempty" db:"reviewed_at"`
	Ratings     []CompetencyRating `json:"ratings" db:"-"`
}

// AssessmentWithOverall adds the computed overall rating to an assessment
type AssessmentWithOverall struct {
	Assessment
	OverallRating float64 `json:"overall_rating"`
}

// ConsensusCompetencyRating is one merged per-competency record of a consensus view
type ConsensusCompetencyRating struct {
	CompetencyID     uint    `json:"competency_id"`
	CompetencyName   string  `json:"competency_name"`
	Rating           int     `json:"rating"`
	AssessorRating   *int    `json:"assessor_rating,omitempty"`
	Comments         *string `json:"comments,omitempty"`
	AssessorComments *string `json:"assessor_comments,omitempty"`
	ConsensusRating  float64 `json:"consensus_rating"`
}

// ConsensusView is derived on demand from one SELF and one ASSESSOR assessment of the same
// employee. It is never persisted.
type ConsensusView struct {
	EmployeeID           uint                        `json:"employee_id"`
	EmployeeName         string                      `json:"employee_name"`
	EmployeeEmail        string                      `json:"employee_email,omitempty"`
	AssessorID           *uint                       `json:"assessor_id,omitempty"`
	AssessorName         string                      `json:"assessor_name"`
	DepartmentName       string                      `json:"department_name,omitempty"`
	JobTitle             string                      `json:"job_title,omitempty"`
	SelfAssessmentID     uint                        `json:"self_assessment_id"`
	AssessorAssessmentID uint                        `json:"assessor_assessment_id"`
	CompetencyRatings    []ConsensusCompetencyRating `json:"competency_ratings"`
	EmployeeOverall      float64                     `json:"employee_rating"`
	AssessorOverall      float64                     `json:"assessor_rating"`
	ConsensusOverall     float64                     `json:"consensus_rating"`
}

// EmployeeProfile holds the self-service profile of an employee
type EmployeeProfile struct {
	UserID              uint       `json:"user_id" db:"user_id"`
	TenantID            uint       `json:"tenant_id" db:"tenant_id"`
	DepartmentID        *uint      `json:"department_id,omitempty" db:"department_id"`
	Phone               *string    `json:"phone,omitempty" db:"phone"`
	Address             *string    `json:"address,omitempty" db:"address"`
	PhotoURL            *string    `json:"photo_url,omitempty" db:"photo_url"`
	OnboardingCompleted bool       `json:"onboarding_completed" db:"onboarding_completed"`
	IsLockedUntil       *time.Time `json:"is_locked_until,omitempty" db:"is_locked_until"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// ProfileWithGate adds the current edit gate state to a profile
type ProfileWithGate struct {
	EmployeeProfile
	Editable    bool       `json:"editable"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	Remaining   string     `json:"remaining,omitempty"`
}
