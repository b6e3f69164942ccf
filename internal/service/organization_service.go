package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
)

// OrganizationStore persists departments, jobs and assignments
type OrganizationStore interface {
	OrganizationReader

	CreateDepartment(ctx context.Context, d *models.Department) error
	GetDepartment(ctx context.Context, tenantID, id uint) (*models.Department, error)
	UpdateDepartment(ctx context.Context, d *models.Department) error
	DeleteDepartment(ctx context.Context, tenantID, id uint) error

	CreateJob(ctx context.Context, j *models.Job) error
	DeleteJob(ctx context.Context, tenantID, id uint) error

	CreateJobAssignment(ctx context.Context, a *models.JobAssignment) error
	DeleteJobAssignment(ctx context.Context, tenantID, id uint) error

	CreateAssessorAssignment(ctx context.Context, a *models.AssessorAssignment) error
	ListAssessorAssignments(ctx context.Context, tenantID uint, assessorID *uint) ([]models.AssessorAssignment, error)
	DeleteAssessorAssignment(ctx context.Context, tenantID, id uint) error
}

// AssignmentNotifier tells an assessor about a new employee to evaluate
type AssignmentNotifier interface {
	SendAssessorAssigned(to, assessorName, employeeName string) error
}

// DepartmentRequest creates or renames a department
type DepartmentRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// JobRequest creates a job
type JobRequest struct {
	DepartmentID uint   `json:"department_id" validate:"required"`
	Title        string `json:"title" validate:"required,max=200"`
}

// JobAssignmentRequest places an employee in a job
type JobAssignmentRequest struct {
	EmployeeID uint       `json:"employee_id" validate:"required"`
	JobID      uint       `json:"job_id" validate:"required"`
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// AssessorAssignmentRequest links an assessor to an employee
type AssessorAssignmentRequest struct {
	EmployeeID uint `json:"employee_id" validate:"required"`
	AssessorID uint `json:"assessor_id" validate:"required"`
}

// OrganizationService manages the organization structure. Writes are admin and HR only.
type OrganizationService struct {
	orgRepo  OrganizationStore
	users    UserReader
	notifier AssignmentNotifier
	auditSvc *AuditService
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(
	orgRepo OrganizationStore,
	users UserReader,
	notifier AssignmentNotifier,
	auditSvc *AuditService,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		users:    users,
		notifier: notifier,
		auditSvc: auditSvc,
	}
}

func (s *OrganizationService) ListDepartments(ctx context.Context, actor auth.Identity) ([]models.Department, error) {
	return s.orgRepo.ListDepartments(ctx, actor.TenantID)
}

func (s *OrganizationService) CreateDepartment(ctx context.Context, actor auth.Identity, req DepartmentRequest) (*models.Department, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	d := &models.Department{TenantID: actor.TenantID, Name: req.Name}
	if err := s.orgRepo.CreateDepartment(ctx, d); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "create", "department", fmt.Sprintf("Created department %q (ID: %d)", d.Name, d.ID))
	return d, nil
}

func (s *OrganizationService) UpdateDepartment(ctx context.Context, actor auth.Identity, id uint, req DepartmentRequest) (*models.Department, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	d := &models.Department{ID: id, TenantID: actor.TenantID, Name: req.Name}
	if err := s.orgRepo.UpdateDepartment(ctx, d); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "update", "department", fmt.Sprintf("Renamed department %d to %q", id, d.Name))
	return d, nil
}

func (s *OrganizationService) DeleteDepartment(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "department", id, s.orgRepo.DeleteDepartment)
}

func (s *OrganizationService) ListJobs(ctx context.Context, actor auth.Identity) ([]models.Job, error) {
	return s.orgRepo.ListJobs(ctx, actor.TenantID)
}

func (s *OrganizationService) CreateJob(ctx context.Context, actor auth.Identity, req JobRequest) (*models.Job, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	j := &models.Job{TenantID: actor.TenantID, DepartmentID: req.DepartmentID, Title: req.Title}
	if err := s.orgRepo.CreateJob(ctx, j); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "create", "job", fmt.Sprintf("Created job %q (ID: %d)", j.Title, j.ID))
	return j, nil
}

func (s *OrganizationService) DeleteJob(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "job", id, s.orgRepo.DeleteJob)
}

// ListJobAssignments returns job assignments, optionally of one employee. Employees only
// see their own.
func (s *OrganizationService) ListJobAssignments(ctx context.Context, actor auth.Identity, employeeID *uint) ([]models.JobAssignment, error) {
	if !isManager(actor) {
		employeeID = &actor.UserID
	}
	return s.orgRepo.ListJobAssignments(ctx, actor.TenantID, employeeID)
}

func (s *OrganizationService) CreateJobAssignment(ctx context.Context, actor auth.Identity, req JobAssignmentRequest) (*models.JobAssignment, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, invalid("end_date must not be before start_date")
	}
	if _, err := s.users.GetByID(ctx, actor.TenantID, req.EmployeeID); err != nil {
		return nil, userErr("employee", err)
	}
	a := &models.JobAssignment{
		TenantID:   actor.TenantID,
		EmployeeID: req.EmployeeID,
		JobID:      req.JobID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	if err := s.orgRepo.CreateJobAssignment(ctx, a); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "create", "job_assignment",
		fmt.Sprintf("Employee %d assigned to job %d from %s", a.EmployeeID, a.JobID, a.StartDate.Format("2006-01-02")))
	return a, nil
}

func (s *OrganizationService) DeleteJobAssignment(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "job_assignment", id, s.orgRepo.DeleteJobAssignment)
}

// ListAssessorAssignments returns assessor assignments. Assessors only see their own.
func (s *OrganizationService) ListAssessorAssignments(ctx context.Context, actor auth.Identity, assessorID *uint) ([]models.AssessorAssignment, error) {
	if !isManager(actor) {
		if actor.Role != models.RoleAssessor {
			return nil, ErrForbidden
		}
		assessorID = &actor.UserID
	}
	return s.orgRepo.ListAssessorAssignments(ctx, actor.TenantID, assessorID)
}

// AssignAssessor links an assessor to an employee and notifies the assessor by email.
// A failed notification is logged and does not fail the assignment.
func (s *OrganizationService) AssignAssessor(ctx context.Context, actor auth.Identity, req AssessorAssignmentRequest) (*models.AssessorAssignment, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	if req.EmployeeID == req.AssessorID {
		return nil, invalid("an employee cannot assess themself")
	}

	employee, err := s.users.GetByID(ctx, actor.TenantID, req.EmployeeID)
	if err != nil {
		return nil, userErr("employee", err)
	}
	assessor, err := s.users.GetByID(ctx, actor.TenantID, req.AssessorID)
	if err != nil {
		return nil, userErr("assessor", err)
	}

	a := &models.AssessorAssignment{
		TenantID:   actor.TenantID,
		EmployeeID: req.EmployeeID,
		AssessorID: req.AssessorID,
	}
	if err := s.orgRepo.CreateAssessorAssignment(ctx, a); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "create", "assessor_assignment",
		fmt.Sprintf("User %d assesses employee %d", a.AssessorID, a.EmployeeID))

	if s.notifier != nil {
		if err := s.notifier.SendAssessorAssigned(assessor.Email, assessor.FullName(), employee.FullName()); err != nil {
			slog.Error("Failed to send assessor assignment email", "assessor_id", assessor.ID, "error", err)
		}
	}

	return a, nil
}

func (s *OrganizationService) DeleteAssessorAssignment(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "assessor_assignment", id, s.orgRepo.DeleteAssessorAssignment)
}

func (s *OrganizationService) remove(ctx context.Context, actor auth.Identity, resource string, id uint, del func(context.Context, uint, uint) error) error {
	if !isManager(actor) {
		return ErrForbidden
	}
	if err := del(ctx, actor.TenantID, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor, "delete", resource, fmt.Sprintf("Deleted %s %d", resource, id))
	return nil
}
