package handlers

import (
	"context"
	"net/http"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/middleware"
	"competency-assessment/internal/service"
	"competency-assessment/pkg/validator"
)

// AuthService is what the auth handler needs from the service layer
type AuthService interface {
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (*service.LoginResult, error)
	Logout(ctx context.Context, actor auth.Identity, token string) error
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login authenticates a user and returns an access token
// @Summary User login
// @Description Authenticate with email and password and receive a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.LoginResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Account inactive"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(
		r.Context(),
		validator.SanitizeEmail(req.Email),
		req.Password,
		middleware.ClientIP(r),
		r.UserAgent(),
	)
	if err != nil {
		writeServiceError(w, r, err, "log in")
		return
	}

	JSONResponse(w, http.StatusOK, result)
}

// Logout ends the session of the presented token
// @Summary User logout
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	token, _ := middleware.GetToken(r)
	if err := h.authService.Logout(r.Context(), actor, token); err != nil {
		writeServiceError(w, r, err, "log out")
		return
	}

	JSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
