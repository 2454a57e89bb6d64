package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global-app/internal/auth"
	"global-app/internal/config"
	"global-app/internal/storage"
)

var testAuthCfg = config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour, Issuer: "global-app-test"}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	blacklist := auth.NewMemoryBlacklist()
	svc := NewAuthService(store, testAuthCfg, blacklist, nil)

	user, err := svc.Register(ctx, RegisterInput{Username: " alice ", Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell", Password: "wonderland"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "wonderland", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	_, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "wonderland")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, loggedIn, err := svc.Login(ctx, "alice@example.com", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.ValidateToken(ctx, token, testAuthCfg, blacklist)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsStaff)

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = auth.ValidateToken(ctx, token, testAuthCfg, blacklist)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	assert.ErrorIs(t, svc.Logout(ctx, &auth.Claims{}), auth.ErrTokenInvalid)
}

func TestIsBusinessError(t *testing.T) {
	assert.True(t, IsBusinessError(ErrAlreadyFriends))
	assert.True(t, IsBusinessError(invalidInput("bad %s", "thing")))
	assert.True(t, IsBusinessError(ErrInvalidCredentials))
	assert.False(t, IsBusinessError(assert.AnError))
	assert.False(t, IsBusinessError(nil))
}
