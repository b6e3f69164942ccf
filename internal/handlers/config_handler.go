package handlers

import (
	"net/http"

	"competency-assessment/internal/config"
	"competency-assessment/internal/profilegate"
	"competency-assessment/internal/rating"
)

// AppConfigResponse is the public configuration a frontend needs before login
type AppConfigResponse struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Features FeatureFlags    `json:"features"`
	Rating   RatingScale     `json:"rating_scale"`
	Profile  ProfileSettings `json:"profile"`
}

// FeatureFlags reports which optional integrations are configured
type FeatureFlags struct {
	PhotoUploads       bool `json:"photo_uploads"`
	CommentEncryption  bool `json:"comment_encryption"`
	EmailNotifications bool `json:"email_notifications"`
}

// RatingScale describes the rating values the API accepts
type RatingScale struct {
	Unrated int `json:"unrated"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// ProfileSettings describes the profile edit lock and photo limit
type ProfileSettings struct {
	LockHours     int   `json:"lock_hours"`
	MaxPhotoBytes int64 `json:"max_photo_bytes"`
}

// ConfigHandler handles configuration requests
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// GetAppConfig returns the public app configuration for the frontend
// @Summary Get app configuration
// @Description Public settings: enabled integrations, rating scale and profile lock
// @Tags Configuration
// @Produce json
// @Success 200 {object} AppConfigResponse
// @Router /config/app [get]
func (h *ConfigHandler) GetAppConfig(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, AppConfigResponse{
		Name:    h.config.App.Name,
		Version: h.config.App.Version,
		Features: FeatureFlags{
			PhotoUploads:       h.config.Cloudinary.URL != "",
			CommentEncryption:  h.config.Vault.Enabled,
			EmailNotifications: h.config.Email.SMTPHost != "",
		},
		Rating: RatingScale{
			Unrated: rating.Unrated,
			Min:     rating.MinRating,
			Max:     rating.MaxRating,
		},
		Profile: ProfileSettings{
			LockHours:     int(profilegate.LockDuration.Hours()),
			MaxPhotoBytes: h.config.Profile.MaxPhotoBytes,
		},
	})
}
