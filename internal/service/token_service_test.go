package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/models"
)

func testTokenService(expiration time.Duration) *TokenService {
	return NewTokenService(zap.NewNop(), TokenConfig{
		Secret:     "test-secret",
		Expiration: expiration,
		Issuer:     "leave-management",
	})
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	svc := testTokenService(time.Hour)
	user := &models.User{
		ID:       "user-1",
		Email:    "ana@school.edu",
		FullName: "Ana Silva",
		Role:     models.RoleStudent,
	}

	token, expiresAt, err := svc.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "ana@school.edu", claims.Email)
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := testTokenService(-time.Minute)
	token, _, err := svc.Issue(&models.User{ID: "user-1", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceRejectsTampered(t *testing.T) {
	svc := testTokenService(time.Hour)
	token, _, err := svc.Issue(&models.User{ID: "user-1", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.Validate(token + "x")
	require.Error(t, err)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	issuer := testTokenService(time.Hour)
	token, _, err := issuer.Issue(&models.User{ID: "user-1", Role: models.RoleStudent})
	require.NoError(t, err)

	other := NewTokenService(zap.NewNop(), TokenConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := testTokenService(time.Hour)
	_, err := svc.Validate("not-a-token")
	require.Error(t, err)
}
