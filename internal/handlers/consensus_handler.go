package handlers

import (
	"context"
	"net/http"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
)

// ConsensusService is what the consensus handler needs from the service layer
type ConsensusService interface {
	List(ctx context.Context, actor auth.Identity) ([]models.ConsensusView, error)
	Get(ctx context.Context, actor auth.Identity, employeeID uint) (*models.ConsensusView, error)
}

// ConsensusHandler serves the derived consensus views
type ConsensusHandler struct {
	consensusService ConsensusService
}

// NewConsensusHandler creates a new consensus handler
func NewConsensusHandler(consensusService ConsensusService) *ConsensusHandler {
	return &ConsensusHandler{
		consensusService: consensusService,
	}
}

// List returns every consensus view the caller may see
// @Summary List consensus views
// @Description One view per employee with a completed SELF and ASSESSOR assessment, ordered by employee id
// @Tags Consensus
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.ConsensusView
// @Failure 403 {object} ErrorResponse
// @Router /consensus [get]
func (h *ConsensusHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	views, err := h.consensusService.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list consensus views")
		return
	}

	JSONResponse(w, http.StatusOK, views)
}

// Get returns the consensus view of one employee
// @Summary Get consensus view
// @Tags Consensus
// @Security BearerAuth
// @Produce json
// @Param id path int true "Employee ID"
// @Success 200 {object} models.ConsensusView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "No completed pair"
// @Router /consensus/employees/{id} [get]
func (h *ConsensusHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	employeeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.consensusService.Get(r.Context(), actor, employeeID)
	if err != nil {
		writeServiceError(w, r, err, "get consensus view")
		return
	}

	JSONResponse(w, http.StatusOK, view)
}
