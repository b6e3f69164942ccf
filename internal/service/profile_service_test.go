package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/models"
	"competency-assessment/internal/profilegate"
	"competency-assessment/internal/repository"
)

type fakeProfiles struct {
	profiles map[uint]models.EmployeeProfile
	saves    int
}

func (f *fakeProfiles) Get(_ context.Context, tenantID, userID uint) (*models.EmployeeProfile, error) {
	p, ok := f.profiles[userID]
	if !ok || p.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) Save(_ context.Context, p *models.EmployeeProfile) error {
	f.saves++
	f.profiles[p.UserID] = *p
	return nil
}

type fakePhotos struct {
	uploads int
	err     error
}

func (f *fakePhotos) UploadProfilePhoto(_ context.Context, tenantID, userID uint, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	return "https://res.cloudinary.com/demo/image/upload/profile-photos/1/4.png", nil
}

type profileFixture struct {
	svc      *ProfileService
	profiles *fakeProfiles
	photos   *fakePhotos
	clock    *time.Time
}

func newProfileFixture() profileFixture {
	profiles := &fakeProfiles{profiles: map[uint]models.EmployeeProfile{}}
	photos := &fakePhotos{}
	svc := NewProfileService(profiles, newFakeOrg(), photos, 1<<20, NewAuditService(&fakeAudit{}))

	clock := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	f := profileFixture{svc: svc, profiles: profiles, photos: photos, clock: &clock}
	svc.now = func() time.Time { return *f.clock }
	return f
}

func (f profileFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestProfileOnboardingAndLock(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()

	got, err := f.svc.Get(ctx, employee)
	require.NoError(t, err)
	assert.True(t, got.Editable)
	assert.False(t, got.OnboardingCompleted)

	_, err = f.svc.Update(ctx, employee, UpdateProfileRequest{Phone: strPtr("+49 30 1234")})
	assert.ErrorIs(t, err, ErrValidation, "onboarding needs a department")

	_, err = f.svc.Update(ctx, employee, UpdateProfileRequest{DepartmentID: uintPtr(7)})
	assert.ErrorIs(t, err, ErrValidation, "department must exist")

	got, err = f.svc.Update(ctx, employee, UpdateProfileRequest{DepartmentID: uintPtr(1), Phone: strPtr("+49 30 1234")})
	require.NoError(t, err)
	assert.True(t, got.OnboardingCompleted)
	assert.Nil(t, got.IsLockedUntil, "completing onboarding does not lock")
	assert.True(t, got.Editable)

	f.advance(time.Minute)
	got, err = f.svc.Update(ctx, employee, UpdateProfileRequest{Address: strPtr("Main St 1")})
	require.NoError(t, err)
	require.NotNil(t, got.IsLockedUntil)
	assert.Equal(t, f.clock.Add(profilegate.LockDuration), *got.IsLockedUntil)
	assert.False(t, got.Editable)
	assert.Equal(t, "12h 0m", got.Remaining)
	require.NotNil(t, got.DepartmentID, "department is kept when omitted")
	assert.Equal(t, uint(1), *got.DepartmentID)

	f.advance(8*time.Hour + 18*time.Minute + 30*time.Second)
	_, err = f.svc.Update(ctx, employee, UpdateProfileRequest{Address: strPtr("Main St 2")})
	require.ErrorIs(t, err, ErrProfileLocked)
	var locked *ProfileLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, "profile is locked, try again in 3h 41m", locked.Error())

	got, err = f.svc.Get(ctx, employee)
	require.NoError(t, err)
	assert.Equal(t, "3h 41m", got.Remaining)
	assert.Equal(t, "Main St 1", *got.Address)

	f.advance(4 * time.Hour)
	got, err = f.svc.Update(ctx, employee, UpdateProfileRequest{Address: strPtr("Main St 2")})
	require.NoError(t, err, "lock has expired")
	assert.Equal(t, "Main St 2", *got.Address)
	assert.Equal(t, 3, f.profiles.saves)
}

func TestProfileLockExpiresExactly(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()

	until := *f.clock
	f.profiles.profiles[employee.UserID] = models.EmployeeProfile{
		UserID:              employee.UserID,
		TenantID:            employee.TenantID,
		DepartmentID:        uintPtr(1),
		OnboardingCompleted: true,
		IsLockedUntil:       &until,
	}

	got, err := f.svc.Get(ctx, employee)
	require.NoError(t, err)
	assert.True(t, got.Editable)
	assert.Empty(t, got.Remaining)
}

func TestUploadPhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("stores url without locking", func(t *testing.T) {
		f := newProfileFixture()
		got, err := f.svc.UploadPhoto(ctx, employee, pngHeader)
		require.NoError(t, err)
		require.NotNil(t, got.PhotoURL)
		assert.Contains(t, *got.PhotoURL, "profile-photos/1/4")
		assert.Nil(t, got.IsLockedUntil)
		assert.False(t, got.OnboardingCompleted)
	})

	t.Run("rejects non images", func(t *testing.T) {
		f := newProfileFixture()
		_, err := f.svc.UploadPhoto(ctx, employee, []byte("%PDF-1.7 not an image"))
		assert.ErrorIs(t, err, ErrValidation)
		assert.Zero(t, f.photos.uploads)
	})

	t.Run("rejects large images", func(t *testing.T) {
		f := newProfileFixture()
		big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1<<20)...)
		_, err := f.svc.UploadPhoto(ctx, employee, big)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("respects the lock", func(t *testing.T) {
		f := newProfileFixture()
		until := f.clock.Add(time.Hour)
		f.profiles.profiles[employee.UserID] = models.EmployeeProfile{
			UserID: employee.UserID, TenantID: employee.TenantID, OnboardingCompleted: true, IsLockedUntil: &until,
		}
		_, err := f.svc.UploadPhoto(ctx, employee, pngHeader)
		assert.ErrorIs(t, err, ErrProfileLocked)
		assert.Zero(t, f.photos.uploads)
	})

	t.Run("disabled without storage", func(t *testing.T) {
		svc := NewProfileService(&fakeProfiles{profiles: map[uint]models.EmployeeProfile{}}, newFakeOrg(), nil, 1<<20, nil)
		_, err := svc.UploadPhoto(ctx, employee, pngHeader)
		assert.ErrorIs(t, err, ErrPhotosDisabled)
	})
}
