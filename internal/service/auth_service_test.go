package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "test", AccessTokenExpiry: time.Hour})

	token, expiresAt, err := svc.IssueToken(models.User{ID: "u1", Role: models.RoleTutor, Email: "t@example.com"})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTutor, claims.Role)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthService(AuthConfig{AccessTokenSecret: "other", Issuer: "test"})
	token, _, err := issuer.IssueToken(models.User{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "test"})
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: -time.Minute})
	svc.config.AccessTokenExpiry = -time.Minute
	token, _, err := svc.IssueToken(models.User{ID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret"})
	token, _, err := svc.IssueToken(models.User{ID: "u1", Role: models.UserRole("teacher")})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
