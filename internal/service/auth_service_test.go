package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/config"
	"competency-assessment/internal/models"
)

type fakeSessions struct {
	sessions map[string]models.Session
}

func (f *fakeSessions) Create(_ context.Context, s *models.Session) error {
	s.CreatedAt = time.Now()
	f.sessions[s.JTI] = *s
	return nil
}

func (f *fakeSessions) DeleteByJTI(_ context.Context, jti string) error {
	delete(f.sessions, jti)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *UserService, *fakeUsers, *fakeSessions) {
	t.Helper()
	authSvc := auth.NewService(&config.JWTConfig{Secret: "test-secret-key-for-testing-only", Expiration: time.Hour})

	users := testUsers()
	hash, err := authSvc.HashPassword("correct-horse")
	require.NoError(t, err)
	for _, u := range users.users {
		u.PasswordHash = hash
	}
	users.users[5].IsActive = false

	sessions := &fakeSessions{sessions: map[string]models.Session{}}
	audit := NewAuditService(&fakeAudit{})
	return NewAuthService(users, sessions, authSvc, audit), NewUserService(users, authSvc, audit), users, sessions
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, _, sessions := newAuthFixture(t)

	res, err := svc.Login(ctx, "JANE@example.com", "correct-horse", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, employee.UserID, res.User.ID)
	assert.InDelta(t, time.Hour.Seconds(), float64(res.ExpiresIn), 2)
	require.Len(t, sessions.sessions, 1)

	for jti, s := range sessions.sessions {
		assert.Equal(t, employee.UserID, s.UserID)
		assert.Equal(t, "10.0.0.1", s.IPAddress)

		require.NoError(t, svc.Logout(ctx, employee, res.AccessToken))
		assert.NotContains(t, sessions.sessions, jti)
	}

	_, err = svc.Login(ctx, "jane@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "sam@example.com", "correct-horse", "", "")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestUserManagement(t *testing.T) {
	ctx := context.Background()
	_, svc, users, _ := newAuthFixture(t)

	created, err := svc.Create(ctx, hr, CreateUserRequest{
		Email:     " New.Person@Example.com ",
		Password:  "long-enough",
		FirstName: "New",
		LastName:  "Person",
		Role:      models.RoleEmployee,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.person@example.com", created.Email)
	assert.NotEqual(t, "long-enough", users.users[created.ID].PasswordHash)

	_, err = svc.Create(ctx, hr, CreateUserRequest{Email: "boss@example.com", Password: "long-enough", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrForbidden, "hr cannot create admins")

	_, err = svc.Create(ctx, admin, CreateUserRequest{Email: "boss@example.com", Password: "long-enough", Role: "owner"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, employee, CreateUserRequest{Email: "x@example.com", Password: "long-enough", Role: models.RoleEmployee})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, hr, created.ID, UpdateUserRequest{Role: models.RoleAssessor, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssessor, updated.Role)

	_, err = svc.Update(ctx, hr, admin.UserID, UpdateUserRequest{Role: models.RoleEmployee, IsActive: true})
	assert.ErrorIs(t, err, ErrForbidden, "hr cannot demote admins")

	_, err = svc.Update(ctx, admin, admin.UserID, UpdateUserRequest{Role: models.RoleAdmin, IsActive: false})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := svc.List(ctx, hr)
	require.NoError(t, err)
	assert.Len(t, list, 6)

	_, err = svc.List(ctx, employee)
	assert.ErrorIs(t, err, ErrForbidden)

	me, err := svc.Me(ctx, employee)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", me.Email)
}
