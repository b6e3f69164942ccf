package handlers

import (
	"context"
	"net/http"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/service"
)

// UserService is what the user handler needs from the service layer
type UserService interface {
	Me(ctx context.Context, actor auth.Identity) (*models.User, error)
	List(ctx context.Context, actor auth.Identity) ([]models.User, error)
	Get(ctx context.Context, actor auth.Identity, id uint) (*models.User, error)
	Create(ctx context.Context, actor auth.Identity, req service.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, actor auth.Identity, id uint, req service.UpdateUserRequest) (*models.User, error)
}

// UserHandler handles user management requests
type UserHandler struct {
	userService UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Me returns the current user
// @Summary Get current user
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Me(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "get current user")
		return
	}

	JSONResponse(w, http.StatusOK, user)
}

// List returns the users of the caller's tenant
// @Summary List users
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	users, err := h.userService.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "list users")
		return
	}

	JSONResponse(w, http.StatusOK, users)
}

// Get returns a single user
// @Summary Get user
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "get user")
		return
	}

	JSONResponse(w, http.StatusOK, user)
}

// Create adds a user to the caller's tenant
// @Summary Create user
// @Description Admin and HR only; only admins may create admins
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req service.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "create user")
		return
	}

	JSONResponse(w, http.StatusCreated, user)
}

// Update changes the role and active flag of a user
// @Summary Update user
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body service.UpdateUserRequest true "Role and status"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), actor, id, req)
	if err != nil {
		writeServiceError(w, r, err, "update user")
		return
	}

	JSONResponse(w, http.StatusOK, user)
}
