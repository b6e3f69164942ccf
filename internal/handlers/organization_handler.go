package handlers

import (
	"context"
	"net/http"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/service"
)

// OrganizationService is what the organization handler needs from the service layer
type OrganizationService interface {
	ListDepartments(ctx context.Context, actor auth.Identity) ([]models.Department, error)
	CreateDepartment(ctx context.Context, actor auth.Identity, req service.DepartmentRequest) (*models.Department, error)
	UpdateDepartment(ctx context.Context, actor auth.Identity, id uint, req service.DepartmentRequest) (*models.Department, error)
	DeleteDepartment(ctx context.Context, actor auth.Identity, id uint) error

	ListJobs(ctx context.Context, actor auth.Identity) ([]models.Job, error)
	CreateJob(ctx context.Context, actor auth.Identity, req service.JobRequest) (*models.Job, error)
	DeleteJob(ctx context.Context, actor auth.Identity, id uint) error

	ListJobAssignments(ctx context.Context, actor auth.Identity, employeeID *uint) ([]models.JobAssignment, error)
	CreateJobAssignment(ctx context.Context, actor auth.Identity, req service.JobAssignmentRequest) (*models.JobAssignment, error)
	DeleteJobAssignment(ctx context.Context, actor auth.Identity, id uint) error

	ListAssessorAssignments(ctx context.Context, actor auth.Identity, assessorID *uint) ([]models.AssessorAssignment, error)
	AssignAssessor(ctx context.Context, actor auth.Identity, req service.AssessorAssignmentRequest) (*models.AssessorAssignment, error)
	DeleteAssessorAssignment(ctx context.Context, actor auth.Identity, id uint) error
}

// OrganizationHandler serves departments, jobs and the assignments between people
type OrganizationHandler struct {
	orgService OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// ListDepartments godoc
// @Summary List departments
// @Tags Organization
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Department
// @Router /departments [get]
func (h *OrganizationHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	departments, err := h.orgService.ListDepartments(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list departments")
		return
	}
	JSONResponse(w, http.StatusOK, departments)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Organization
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.DepartmentRequest true "Department"
// @Success 201 {object} models.Department
// @Failure 409 {object} ErrorResponse "Name already taken"
// @Router /departments [post]
func (h *OrganizationHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	department, err := h.orgService.CreateDepartment(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create department")
		return
	}
	JSONResponse(w, http.StatusCreated, department)
}

// UpdateDepartment godoc
// @Summary Rename department
// @Tags Organization
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Department ID"
// @Param request body service.DepartmentRequest true "Department"
// @Success 200 {object} models.Department
// @Router /departments/{id} [put]
func (h *OrganizationHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	department, err := h.orgService.UpdateDepartment(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, "update department")
		return
	}
	JSONResponse(w, http.StatusOK, department)
}

// DeleteDepartment godoc
// @Summary Delete department
// @Tags Organization
// @Security BearerAuth
// @Param id path int true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *OrganizationHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete department", h.orgService.DeleteDepartment)
}

// ListJobs godoc
// @Summary List jobs
// @Tags Organization
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Job
// @Router /jobs [get]
func (h *OrganizationHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	jobs, err := h.orgService.ListJobs(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list jobs")
		return
	}
	JSONResponse(w, http.StatusOK, jobs)
}

// CreateJob godoc
// @Summary Create job
// @Tags Organization
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.JobRequest true "Job"
// @Success 201 {object} models.Job
// @Router /jobs [post]
func (h *OrganizationHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.JobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	job, err := h.orgService.CreateJob(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create job")
		return
	}
	JSONResponse(w, http.StatusCreated, job)
}

// DeleteJob godoc
// @Summary Delete job
// @Tags Organization
// @Security BearerAuth
// @Param id path int true "Job ID"
// @Success 204
// @Router /jobs/{id} [delete]
func (h *OrganizationHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete job", h.orgService.DeleteJob)
}

// ListJobAssignments godoc
// @Summary List job assignments
// @Description Employees and assessors only see their own assignments
// @Tags Organization
// @Security BearerAuth
// @Produce json
// @Param employee_id query int false "Employee ID"
// @Success 200 {array} models.JobAssignment
// @Router /job-assignments [get]
func (h *OrganizationHandler) ListJobAssignments(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	assignments, err := h.orgService.ListJobAssignments(r.Context(), actor, employeeID)
	if err != nil {
		writeServiceError(w, r, err, "list job assignments")
		return
	}
	JSONResponse(w, http.StatusOK, assignments)
}

// CreateJobAssignment godoc
// @Summary Assign an employee to a job
// @Tags Organization
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.JobAssignmentRequest true "Assignment"
// @Success 201 {object} models.JobAssignment
// @Failure 400 {object} ErrorResponse
// @Router /job-assignments [post]
func (h *OrganizationHandler) CreateJobAssignment(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.JobAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	assignment, err := h.orgService.CreateJobAssignment(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create job assignment")
		return
	}
	JSONResponse(w, http.StatusCreated, assignment)
}

// DeleteJobAssignment godoc
// @Summary Delete job assignment
// @Tags Organization
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /job-assignments/{id} [delete]
func (h *OrganizationHandler) DeleteJobAssignment(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete job assignment", h.orgService.DeleteJobAssignment)
}

// ListAssessorAssignments godoc
// @Summary List assessor assignments
// @Description Assessors only see their own; employees are refused
// @Tags Organization
// @Security BearerAuth
// @Produce json
// @Param assessor_id query int false "Assessor ID"
// @Success 200 {array} models.AssessorAssignment
// @Failure 403 {object} ErrorResponse
// @Router /assessor-assignments [get]
func (h *OrganizationHandler) ListAssessorAssignments(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	assessorID, err := queryID(r, "assessor_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	assignments, err := h.orgService.ListAssessorAssignments(r.Context(), actor, assessorID)
	if err != nil {
		writeServiceError(w, r, err, "list assessor assignments")
		return
	}
	JSONResponse(w, http.StatusOK, assignments)
}

// AssignAssessor godoc
// @Summary Assign an assessor to an employee
// @Description The assessor is notified by email when mail is enabled
// @Tags Organization
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.AssessorAssignmentRequest true "Assignment"
// @Success 201 {object} models.AssessorAssignment
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already assigned"
// @Router /assessor-assignments [post]
func (h *OrganizationHandler) AssignAssessor(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.AssessorAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	assignment, err := h.orgService.AssignAssessor(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "assign assessor")
		return
	}
	JSONResponse(w, http.StatusCreated, assignment)
}

// DeleteAssessorAssignment godoc
// @Summary Remove assessor assignment
// @Tags Organization
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /assessor-assignments/{id} [delete]
func (h *OrganizationHandler) DeleteAssessorAssignment(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete assessor assignment", h.orgService.DeleteAssessorAssignment)
}
