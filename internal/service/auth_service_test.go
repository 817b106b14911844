package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
)

const goodPassword = "correct horse battery"

func TestAuthService_CreateUserAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := f.authService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserCommand{
		Username:   "dr.house",
		Password:   goodPassword,
		FirstName:  "Gregory",
		LastName:   "House",
		Role:       domain.RoleClinician,
		CanExtract: true,
	})
	require.NoError(t, err)

	profile, err := f.profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.ForcePasswordChange)
	assert.True(t, profile.CanExtract)
	assert.Equal(t, "Gregory House", profile.User.FullName())

	pair, err := svc.Login(ctx, "dr.house", goodPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)

	refreshed, err := svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, refreshed.AccessToken)

	_, err = svc.RefreshToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "access tokens cannot refresh")

	_, err = svc.CreateUser(ctx, CreateUserCommand{Username: "dr.house", Password: goodPassword, Role: domain.RoleNurse})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestAuthService_CreateUserValidation(t *testing.T) {
	f := newFixture(t)
	svc := f.authService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserCommand{Username: " ", Password: "short", Role: "wizard"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestAuthService_Lockout(t *testing.T) {
	f := newFixture(t)
	svc := f.authService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserCommand{Username: "nurse", Password: goodPassword, Role: domain.RoleNurse})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody", goodPassword, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	for i := 0; i < maxFailedAttempts; i++ {
		_, err = svc.Login(ctx, "nurse", "wrong password!", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = svc.Login(ctx, "nurse", goodPassword, "")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := f.authService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserCommand{Username: "sci", Password: goodPassword, Role: domain.RoleScientist})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "not my password", "another good password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, user.ID, goodPassword, "tiny")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, goodPassword, "another good password"))

	profile, err := f.profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, profile.ForcePasswordChange)

	_, err = svc.Login(ctx, "sci", "another good password", "")
	assert.NoError(t, err)
}
