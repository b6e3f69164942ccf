package handlers

import (
	"context"
	"net/http"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/service"
)

// CompetencyService is what the competency handler needs from the service layer
type CompetencyService interface {
	ListDomains(ctx context.Context, actor auth.Identity) ([]models.CompetencyDomain, error)
	CreateDomain(ctx context.Context, actor auth.Identity, req service.DomainRequest) (*models.CompetencyDomain, error)
	UpdateDomain(ctx context.Context, actor auth.Identity, id uint, req service.DomainRequest) (*models.CompetencyDomain, error)
	DeleteDomain(ctx context.Context, actor auth.Identity, id uint) error

	ListCategories(ctx context.Context, actor auth.Identity, domainID *uint) ([]models.CompetencyCategory, error)
	CreateCategory(ctx context.Context, actor auth.Identity, req service.CategoryRequest) (*models.CompetencyCategory, error)
	UpdateCategory(ctx context.Context, actor auth.Identity, id uint, req service.CategoryRequest) (*models.CompetencyCategory, error)
	DeleteCategory(ctx context.Context, actor auth.Identity, id uint) error

	ListCompetencies(ctx context.Context, actor auth.Identity, categoryID *uint) ([]models.Competency, error)
	GetCompetency(ctx context.Context, actor auth.Identity, id uint) (*models.Competency, error)
	CreateCompetency(ctx context.Context, actor auth.Identity, req service.CompetencyRequest) (*models.Competency, error)
	UpdateCompetency(ctx context.Context, actor auth.Identity, id uint, req service.CompetencyRequest) (*models.Competency, error)
	DeleteCompetency(ctx context.Context, actor auth.Identity, id uint) error

	ListLevels(ctx context.Context, actor auth.Identity) ([]models.ProficiencyLevel, error)
	SaveLevel(ctx context.Context, actor auth.Identity, req service.LevelRequest) (*models.ProficiencyLevel, error)
	DeleteLevel(ctx context.Context, actor auth.Identity, id uint) error
}

// CompetencyHandler serves the competency framework: domains, categories, competencies
// and proficiency levels
type CompetencyHandler struct {
	competencyService CompetencyService
}

// NewCompetencyHandler creates a new competency handler
func NewCompetencyHandler(competencyService CompetencyService) *CompetencyHandler {
	return &CompetencyHandler{
		competencyService: competencyService,
	}
}

// ListDomains godoc
// @Summary List competency domains
// @Tags Competencies
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.CompetencyDomain
// @Router /competency-domains [get]
func (h *CompetencyHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	domains, err := h.competencyService.ListDomains(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list competency domains")
		return
	}
	JSONResponse(w, http.StatusOK, domains)
}

// CreateDomain godoc
// @Summary Create competency domain
// @Tags Competencies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.DomainRequest true "Domain"
// @Success 201 {object} models.CompetencyDomain
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /competency-domains [post]
func (h *CompetencyHandler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.DomainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	domain, err := h.competencyService.CreateDomain(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create competency domain")
		return
	}
	JSONResponse(w, http.StatusCreated, domain)
}

// UpdateDomain godoc
// @Summary Update competency domain
// @Tags Competencies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Domain ID"
// @Param request body service.DomainRequest true "Domain"
// @Success 200 {object} models.CompetencyDomain
// @Failure 404 {object} ErrorResponse
// @Router /competency-domains/{id} [put]
func (h *CompetencyHandler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.DomainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	domain, err := h.competencyService.UpdateDomain(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, "update competency domain")
		return
	}
	JSONResponse(w, http.StatusOK, domain)
}

// DeleteDomain godoc
// @Summary Delete competency domain
// @Tags Competencies
// @Security BearerAuth
// @Param id path int true "Domain ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /competency-domains/{id} [delete]
func (h *CompetencyHandler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete competency domain", h.competencyService.DeleteDomain)
}

// ListCategories godoc
// @Summary List competency categories
// @Tags Competencies
// @Security BearerAuth
// @Produce json
// @Param domain_id query int false "Domain ID"
// @Success 200 {array} models.CompetencyCategory
// @Router /competency-categories [get]
func (h *CompetencyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	domainID, err := queryID(r, "domain_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	categories, err := h.competencyService.ListCategories(r.Context(), actor, domainID)
	if err != nil {
		writeServiceError(w, r, err, "list competency categories")
		return
	}
	JSONResponse(w, http.StatusOK, categories)
}

// CreateCategory godoc
// @Summary Create competency category
// @Tags Competencies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CategoryRequest true "Category"
// @Success 201 {object} models.CompetencyCategory
// @Failure 400 {object} ErrorResponse
// @Router /competency-categories [post]
func (h *CompetencyHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := h.competencyService.CreateCategory(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create competency category")
		return
	}
	JSONResponse(w, http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update competency category
// @Tags Competencies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body service.CategoryRequest true "Category"
// @Success 200 {object} models.CompetencyCategory
// @Router /competency-categories/{id} [put]
func (h *CompetencyHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := h.competencyService.UpdateCategory(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, "update competency category")
		return
	}
	JSONResponse(w, http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete competency category
// @Tags Competencies
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Router /competency-categories/{id} [delete]
func (h *CompetencyHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete competency category", h.competencyService.DeleteCategory)
}

// ListCompetencies godoc
// @Summary List competencies
// @Tags Competencies
// @Security BearerAuth
// @Produce json
// @Param category_id query int false "Category ID"
// @Success 200 {array} models.Competency
// @Router /competencies [get]
func (h *CompetencyHandler) ListCompetencies(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	categoryID, err := queryID(r, "category_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	competencies, err := h.competencyService.ListCompetencies(r.Context(), actor, categoryID)
	if err != nil {
		writeServiceError(w, r, err, "list competencies")
		return
	}
	JSONResponse(w, http.StatusOK, competencies)
}

// GetCompetency godoc
// @Summary Get competency
// @Tags Competencies
// @Security BearerAuth
// @Produce json
// @Param id path int true "Competency ID"
// @Success 200 {object} models.Competency
// @Failure 404 {object} ErrorResponse
// @Router /competencies/{id} [get]
func (h *CompetencyHandler) GetCompetency(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	competency, err := h.competencyService.GetCompetency(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "get competency")
		return
	}
	JSONResponse(w, http.StatusOK, competency)
}

// CreateCompetency godoc
// @Summary Create competency
// @Tags Competencies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CompetencyRequest true "Competency"
// @Success 201 {object} models.Competency
// @Failure 400 {object} ErrorResponse
// @Router /competencies [post]
func (h *CompetencyHandler) CreateCompetency(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.CompetencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	competency, err := h.competencyService.CreateCompetency(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create competency")
		return
	}
	JSONResponse(w, http.StatusCreated, competency)
}

// UpdateCompetency godoc
// @Summary Update competency
// @Tags Competencies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Competency ID"
// @Param request body service.CompetencyRequest true "Competency"
// @Success 200 {object} models.Competency
// @Router /competencies/{id} [put]
func (h *CompetencyHandler) UpdateCompetency(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.CompetencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	competency, err := h.competencyService.UpdateCompetency(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, "update competency")
		return
	}
	JSONResponse(w, http.StatusOK, competency)
}

// DeleteCompetency godoc
// @Summary Delete competency
// @Tags Competencies
// @Security BearerAuth
// @Param id path int true "Competency ID"
// @Success 204
// @Router /competencies/{id} [delete]
func (h *CompetencyHandler) DeleteCompetency(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete competency", h.competencyService.DeleteCompetency)
}

// ListLevels godoc
// @Summary List proficiency levels
// @Tags Competencies
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.ProficiencyLevel
// @Router /proficiency-levels [get]
func (h *CompetencyHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	levels, err := h.competencyService.ListLevels(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list proficiency levels")
		return
	}
	JSONResponse(w, http.StatusOK, levels)
}

// SaveLevel godoc
// @Summary Create or relabel a proficiency level
// @Tags Competencies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.LevelRequest true "Level 1 to 5"
// @Success 200 {object} models.ProficiencyLevel
// @Failure 400 {object} ErrorResponse
// @Router /proficiency-levels [put]
func (h *CompetencyHandler) SaveLevel(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.LevelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	level, err := h.competencyService.SaveLevel(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "save proficiency level")
		return
	}
	JSONResponse(w, http.StatusOK, level)
}

// DeleteLevel godoc
// @Summary Delete proficiency level
// @Tags Competencies
// @Security BearerAuth
// @Param id path int true "Level ID"
// @Success 204
// @Router /proficiency-levels/{id} [delete]
func (h *CompetencyHandler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	removeByID(w, r, "delete proficiency level", h.competencyService.DeleteLevel)
}

// removeByID answers a DELETE on /{id} with 204
func removeByID(w http.ResponseWriter, r *http.Request, action string, del func(context.Context, auth.Identity, uint) error) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := del(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err, action)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
