package service

import (
	"testing"
	"time"

	"learnly/config"
	"learnly/internal/auth"
	"learnly/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(env *testEnv) *AuthService {
	env.cfg.JWT = config.JWTConfig{
		AccessSecret:  "access-test-secret",
		RefreshSecret: "refresh-test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "learnly-test",
	}
	return NewAuthService(env.cfg, env.users)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user, access, refresh, err := svc.Register("Eve", "eve@test.local", "s3cret!", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	claims, err := auth.ParseAccessToken(&env.cfg.JWT, access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleStudent, claims.Role)

	got, _, _, err := svc.Login("eve@test.local", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, _, _, err = svc.Login("eve@test.local", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRegisterRejectsDuplicateEmailAndAdminRole(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, _, _, err := svc.Register("Eve", "eve@test.local", "s3cret!", "INSTRUCTOR")
	require.NoError(t, err)

	_, _, _, err = svc.Register("Imposter", "eve@test.local", "other", "")
	assert.ErrorIs(t, err, ErrEmailExists)

	// Self-registration can never mint an admin.
	user, _, _, err := svc.Register("Mallory", "mallory@test.local", "pw", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, user.Role)
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user, _, refresh, err := svc.Register("Frank", "frank@test.local", "pw", "")
	require.NoError(t, err)

	got, access, _, err := svc.Refresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, access)

	_, _, _, err = svc.Refresh("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLoginWithGoogleLinksAndCreates(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	// Fresh Google sign-in creates a student account.
	user, _, _, isNew, err := svc.LoginWithGoogle("goog-1", "grace@test.local", "Grace", "https://pic/1")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, domain.RoleStudent, user.Role)

	// Second sign-in finds the linked account.
	again, _, _, isNew, err := svc.LoginWithGoogle("goog-1", "grace@test.local", "Grace", "")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, user.ID, again.ID)

	// Existing email account gets linked instead of duplicated.
	existing, _, _, err := svc.Register("Heidi", "heidi@test.local", "pw", "")
	require.NoError(t, err)
	linked, _, _, isNew, err := svc.LoginWithGoogle("goog-2", "heidi@test.local", "Heidi", "https://pic/2")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, existing.ID, linked.ID)
	require.NotNil(t, linked.GoogleID)
	assert.Equal(t, "goog-2", *linked.GoogleID)
}
