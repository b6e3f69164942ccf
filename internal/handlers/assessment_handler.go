package handlers

import (
	"context"
	"net/http"
	"strings"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/repository"
	"competency-assessment/internal/service"
)

// AssessmentService is what the assessment handler needs from the service layer
type AssessmentService interface {
	Create(ctx context.Context, actor auth.Identity, req service.CreateAssessmentRequest) (*models.AssessmentWithOverall, error)
	Get(ctx context.Context, actor auth.Identity, id uint) (*models.AssessmentWithOverall, error)
	List(ctx context.Context, actor auth.Identity, f repository.AssessmentFilter) ([]models.AssessmentWithOverall, error)
	Transition(ctx context.Context, actor auth.Identity, id uint, to models.AssessmentStatus) (*models.AssessmentWithOverall, error)
	SaveRating(ctx context.Context, actor auth.Identity, id uint, req service.SaveRatingRequest) (*models.AssessmentWithOverall, error)
	Delete(ctx context.Context, actor auth.Identity, id uint) error
}

// TransitionRequest names the status to move an assessment to
type TransitionRequest struct {
	Status models.AssessmentStatus `json:"status" validate:"required,oneof=IN_PROGRESS COMPLETED REVIEWED"`
}

// AssessmentHandler handles assessment HTTP requests
type AssessmentHandler struct {
	assessmentService AssessmentService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessmentService AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
	}
}

// Create opens a new assessment
// @Summary Create assessment
// @Description Open a SELF assessment for yourself, or (admin/HR) an ASSESSOR assessment for an assigned assessor. CONSENSUS assessments are derived and rejected.
// @Tags Assessments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateAssessmentRequest true "Assessment"
// @Success 201 {object} models.AssessmentWithOverall
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /assessments [post]
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req service.CreateAssessmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.assessmentService.Create(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create assessment")
		return
	}

	JSONResponse(w, http.StatusCreated, a)
}

// List returns the assessments visible to the caller
// @Summary List assessments
// @Description Admin and HR see the whole tenant; others see the assessments about them and the ones they evaluate
// @Tags Assessments
// @Security BearerAuth
// @Produce json
// @Param employee_id query int false "Employee ID"
// @Param assessor_id query int false "Assessor ID"
// @Param type query string false "SELF or ASSESSOR"
// @Param status query string false "Comma separated statuses"
// @Success 200 {array} models.AssessmentWithOverall
// @Failure 400 {object} ErrorResponse
// @Router /assessments [get]
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var (
		f   repository.AssessmentFilter
		err error
	)
	if f.EmployeeID, err = queryID(r, "employee_id"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.AssessorID, err = queryID(r, "assessor_id"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if t := models.AssessmentType(r.URL.Query().Get("type")); t != "" {
		if !t.Valid() {
			respondError(w, http.StatusBadRequest, "invalid type")
			return
		}
		f.Type = t
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			s := models.AssessmentStatus(strings.TrimSpace(part))
			if !s.Valid() {
				respondError(w, http.StatusBadRequest, "invalid status")
				return
			}
			f.Statuses = append(f.Statuses, s)
		}
	}

	list, err := h.assessmentService.List(r.Context(), actor, f)
	if err != nil {
		writeServiceError(w, r, err, "list assessments")
		return
	}

	JSONResponse(w, http.StatusOK, list)
}

// Get returns one assessment with its ratings and overall rating
// @Summary Get assessment
// @Tags Assessments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} models.AssessmentWithOverall
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	a, err := h.assessmentService.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "get assessment")
		return
	}

	JSONResponse(w, http.StatusOK, a)
}

// Transition moves an assessment forward
// @Summary Change assessment status
// @Description PENDING to IN_PROGRESS to COMPLETED to REVIEWED; REVIEWED is admin/HR only
// @Tags Assessments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param request body TransitionRequest true "Target status"
// @Success 200 {object} models.AssessmentWithOverall
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{id}/status [put]
func (h *AssessmentHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.assessmentService.Transition(r.Context(), actor, id, req.Status)
	if err != nil {
		writeServiceError(w, r, err, "change assessment status")
		return
	}

	JSONResponse(w, http.StatusOK, a)
}

// SaveRating stores the rating of one competency
// @Summary Save competency rating
// @Description Rating 0 means not yet rated. Ratings of COMPLETED or REVIEWED assessments are frozen.
// @Tags Assessments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param request body service.SaveRatingRequest true "Rating"
// @Success 200 {object} models.AssessmentWithOverall
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{id}/ratings [put]
func (h *AssessmentHandler) SaveRating(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req service.SaveRatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.assessmentService.SaveRating(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, "save rating")
		return
	}

	JSONResponse(w, http.StatusOK, a)
}

// Delete removes an assessment
// @Summary Delete assessment
// @Tags Assessments
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.assessmentService.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err, "delete assessment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
