package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/profilegate"
	"competency-assessment/internal/repository"
	"competency-assessment/internal/storage"
)

// ProfileStore persists employee profiles
type ProfileStore interface {
	Get(ctx context.Context, tenantID, userID uint) (*models.EmployeeProfile, error)
	Save(ctx context.Context, p *models.EmployeeProfile) error
}

// DepartmentReader resolves departments of a tenant
type DepartmentReader interface {
	GetDepartment(ctx context.Context, tenantID, id uint) (*models.Department, error)
}

// PhotoStore keeps profile photos and returns their public URL
type PhotoStore interface {
	UploadProfilePhoto(ctx context.Context, tenantID, userID uint, data []byte) (string, error)
}

// UpdateProfileRequest is the editable part of a profile
type UpdateProfileRequest struct {
	DepartmentID *uint   `json:"department_id,omitempty"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ProfileService handles the self-service employee profile
type ProfileService struct {
	profileRepo   ProfileStore
	departments   DepartmentReader
	photos        PhotoStore
	maxPhotoBytes int64
	auditSvc      *AuditService
	now           func() time.Time
}

// NewProfileService creates a new profile service. photos may be nil when no photo
// storage is configured.
func NewProfileService(
	profileRepo ProfileStore,
	departments DepartmentReader,
	photos PhotoStore,
	maxPhotoBytes int64,
	auditSvc *AuditService,
) *ProfileService {
	return &ProfileService{
		profileRepo:   profileRepo,
		departments:   departments,
		photos:        photos,
		maxPhotoBytes: maxPhotoBytes,
		auditSvc:      auditSvc,
		now:           time.Now,
	}
}

// Get returns the caller's profile with the current gate state
func (s *ProfileService) Get(ctx context.Context, actor auth.Identity) (*models.ProfileWithGate, error) {
	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return withGate(p, s.now()), nil
}

// Update saves the caller's profile. The first save completes onboarding and requires a
// department; every later save locks the profile for profilegate.LockDuration.
func (s *ProfileService) Update(ctx context.Context, actor auth.Identity, req UpdateProfileRequest) (*models.ProfileWithGate, error) {
	now := s.now()

	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := checkGate(p, now); err != nil {
		return nil, err
	}

	if req.DepartmentID == nil && !p.OnboardingCompleted {
		return nil, invalid("department_id is required to complete onboarding")
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.GetDepartment(ctx, actor.TenantID, *req.DepartmentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("department %d does not exist", *req.DepartmentID)
			}
			return nil, err
		}
		p.DepartmentID = req.DepartmentID
	}
	p.Phone = req.Phone
	p.Address = req.Address

	if p.OnboardingCompleted {
		lock := profilegate.NextLock(now)
		p.IsLockedUntil = &lock
	} else {
		p.OnboardingCompleted = true
		p.IsLockedUntil = nil
	}

	if err := s.profileRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "update", "profile", fmt.Sprintf("Profile of user %d saved", actor.UserID))

	return withGate(p, now), nil
}

// UploadPhoto replaces the caller's profile photo. It is subject to the same gate as
// Update but neither completes onboarding nor renews the lock.
func (s *ProfileService) UploadPhoto(ctx context.Context, actor auth.Identity, data []byte) (*models.ProfileWithGate, error) {
	if s.photos == nil {
		return nil, ErrPhotosDisabled
	}
	if _, err := storage.ValidateImage(data, s.maxPhotoBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.now()
	p, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := checkGate(p, now); err != nil {
		return nil, err
	}

	url, err := s.photos.UploadProfilePhoto(ctx, actor.TenantID, actor.UserID, data)
	if err != nil {
		return nil, err
	}
	p.PhotoURL = &url

	if err := s.profileRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "upload", "profile_photo", fmt.Sprintf("Photo of user %d replaced", actor.UserID))

	return withGate(p, now), nil
}

// load returns the stored profile or a blank one for a user who never saved
func (s *ProfileService) load(ctx context.Context, actor auth.Identity) (*models.EmployeeProfile, error) {
	p, err := s.profileRepo.Get(ctx, actor.TenantID, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.EmployeeProfile{UserID: actor.UserID, TenantID: actor.TenantID}, nil
	}
	return p, err
}

func checkGate(p *models.EmployeeProfile, now time.Time) error {
	state := profilegate.Evaluate(p.OnboardingCompleted, p.IsLockedUntil, now)
	if state.Editable {
		return nil
	}
	return &ProfileLockedError{Until: *state.LockedUntil, Remaining: state.Remaining(now)}
}

func withGate(p *models.EmployeeProfile, now time.Time) *models.ProfileWithGate {
	state := profilegate.Evaluate(p.OnboardingCompleted, p.IsLockedUntil, now)
	out := &models.ProfileWithGate{
		EmployeeProfile: *p,
		Editable:        state.Editable,
		LockedUntil:     state.LockedUntil,
	}
	if !state.Editable {
		out.Remaining = profilegate.FormatRemaining(state.Remaining(now))
	}
	return out
}
