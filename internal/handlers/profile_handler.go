package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/service"
)

// ProfileService is what the profile handler needs from the service layer
type ProfileService interface {
	Get(ctx context.Context, actor auth.Identity) (*models.ProfileWithGate, error)
	Update(ctx context.Context, actor auth.Identity, req service.UpdateProfileRequest) (*models.ProfileWithGate, error)
	UploadPhoto(ctx context.Context, actor auth.Identity, data []byte) (*models.ProfileWithGate, error)
}

// multipartOverhead leaves room for the form envelope around the photo
const multipartOverhead = 64 << 10

// ProfileHandler serves the caller's own employee profile
type ProfileHandler struct {
	profileService ProfileService
	maxPhotoBytes  int64
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, maxPhotoBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		maxPhotoBytes:  maxPhotoBytes,
	}
}

// Get returns the caller's profile and whether it can be edited right now
// @Summary Get own profile
// @Tags Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.ProfileWithGate
// @Router /profile [get]
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "get profile")
		return
	}

	JSONResponse(w, http.StatusOK, profile)
}

// Update saves the caller's profile
// @Summary Update own profile
// @Description The first save completes onboarding and needs a department. Every later save locks the profile for 12 hours.
// @Tags Profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileRequest true "Profile"
// @Success 200 {object} models.ProfileWithGate
// @Failure 400 {object} ErrorResponse
// @Failure 423 {object} ErrorResponse "Profile locked"
// @Router /profile [put]
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var req service.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.Update(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err, "update profile")
		return
	}

	JSONResponse(w, http.StatusOK, profile)
}

// UploadPhoto replaces the caller's profile photo
// @Summary Upload profile photo
// @Description JPEG, PNG or WebP in the "photo" form field
// @Tags Profile
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param photo formData file true "Image"
// @Success 200 {object} models.ProfileWithGate
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 423 {object} ErrorResponse "Profile locked"
// @Failure 503 {object} ErrorResponse "Photo storage not configured"
// @Router /profile/photo [post]
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoBytes+multipartOverhead)
	file, _, err := r.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Photo is too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Missing photo")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read photo")
		return
	}

	profile, err := h.profileService.UploadPhoto(r.Context(), actor, data)
	if err != nil {
		writeServiceError(w, r, err, "upload profile photo")
		return
	}

	JSONResponse(w, http.StatusOK, profile)
}
