package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func registerRequest() *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     "cook@example.com",
		Username:  "cook",
		FirstName: "Chef",
		LastName:  "Cook",
		Password:  "long-enough-pw",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "long-enough-pw", user.PasswordHash)

	token, err := env.auth.Login(ctx, &types.LoginRequest{Email: "COOK@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)

	claims, err := env.auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "cook", claims.Username)
	assert.NotEmpty(t, claims.ID)

	_, err = env.auth.Login(ctx, &types.LoginRequest{Email: "cook@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, &types.LoginRequest{Email: "nobody@example.com", Password: "long-enough-pw"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *types.RegisterRequest)
		field  string
	}{
		{"taken email", func(r *types.RegisterRequest) { r.Username = "other" }, "email"},
		{"taken username", func(r *types.RegisterRequest) { r.Email = "other@example.com" }, "username"},
		{"bad email", func(r *types.RegisterRequest) { r.Email = "nope" }, "email"},
		{"bad username", func(r *types.RegisterRequest) { r.Username = "has space" }, "username"},
		{"reserved username", func(r *types.RegisterRequest) { r.Username = "me" }, "username"},
		{"short password", func(r *types.RegisterRequest) { r.Email, r.Username, r.Password = "x@example.com", "x", "short" }, "password"},
		{"missing first name", func(r *types.RegisterRequest) { r.FirstName = "" }, "first_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerRequest()
			tt.mutate(req)
			_, err := env.auth.Register(ctx, req)
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}
	assert.Equal(t, int64(1), testhelpers.CountRows(t, env.db, &models.User{}))
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "alice")

	token, err := env.auth.Login(ctx, &types.LoginRequest{Email: user.Email, Password: testhelpers.TestPassword})
	require.NoError(t, err)
	claims, err := env.auth.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, claims))
	_, err = env.auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	// a fresh login still works
	again, err := env.auth.Login(ctx, &types.LoginRequest{Email: user.Email, Password: testhelpers.TestPassword})
	require.NoError(t, err)
	_, err = env.auth.ValidateToken(ctx, again)
	assert.NoError(t, err)
}

func TestValidateTokenRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "alice")

	_, err := env.auth.ValidateToken(ctx, "invalid.token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	other := service.NewAuthService(env.db, "another-secret", time.Hour, service.NewMemoryBlocklist(), logger.Nop())
	foreign, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, err = env.auth.ValidateToken(ctx, foreign)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	expired := service.NewAuthService(env.db, "test-secret", -time.Minute, service.NewMemoryBlocklist(), logger.Nop())
	stale, err := expired.GenerateToken(user)
	require.NoError(t, err)
	_, err = env.auth.ValidateToken(ctx, stale)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &types.TokenClaims{UserID: user.ID})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = env.auth.ValidateToken(ctx, unsigned)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

type unreachableBlocklist struct{}

func (unreachableBlocklist) Revoke(context.Context, string, time.Time) error {
	return errors.New("connection refused")
}

func (unreachableBlocklist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestValidateTokenBlocklistFailureIsNotInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	user := testhelpers.CreateUser(t, env.db, "alice")
	auth := service.NewAuthService(env.db, "test-secret", time.Hour, unreachableBlocklist{}, logger.Nop())
	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	_, err = auth.ValidateToken(context.Background(), token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidToken)
}

func TestSetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, env.db, "alice")

	err := env.auth.SetPassword(ctx, user.ID, &types.SetPasswordRequest{CurrentPassword: "wrong", NewPassword: "brand-new-pw"})
	assert.ErrorIs(t, err, service.ErrWrongPassword)

	err = env.auth.SetPassword(ctx, user.ID, &types.SetPasswordRequest{CurrentPassword: testhelpers.TestPassword, NewPassword: "short"})
	assert.Contains(t, fieldErrors(t, err), "new_password")

	require.NoError(t, env.auth.SetPassword(ctx, user.ID, &types.SetPasswordRequest{CurrentPassword: testhelpers.TestPassword, NewPassword: "brand-new-pw"}))

	_, err = env.auth.Login(ctx, &types.LoginRequest{Email: user.Email, Password: testhelpers.TestPassword})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, &types.LoginRequest{Email: user.Email, Password: "brand-new-pw"})
	assert.NoError(t, err)
}

func TestMemoryBlocklistExpires(t *testing.T) {
	b := service.NewMemoryBlocklist()
	ctx := context.Background()

	require.NoError(t, b.Revoke(ctx, "a", time.Now().Add(time.Hour)))
	require.NoError(t, b.Revoke(ctx, "b", time.Now().Add(-time.Second)))

	revoked, err := b.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = b.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked)
}
