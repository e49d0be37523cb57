package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(&JWTConfig{
		Secret:            "test-secret-key-for-unit-tests",
		AccessTokenExpiry: expiry,
		Issuer:            "coursecart-test",
	})
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := newTestManager(time.Hour)
	userID := uuid.New()

	token, expiresAt, err := manager.GenerateAccessToken(userID, "parent@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "parent@example.com", claims.Email)
	assert.Equal(t, "coursecart-test", claims.Issuer)
}

func TestJWTManager_ValidateExpiredToken(t *testing.T) {
	manager := newTestManager(-time.Minute)

	token, _, err := manager.GenerateAccessToken(uuid.New(), "parent@example.com")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ValidateTamperedToken(t *testing.T) {
	manager := newTestManager(time.Hour)

	token, _, err := manager.GenerateAccessToken(uuid.New(), "parent@example.com")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ValidateWrongSecret(t *testing.T) {
	manager := newTestManager(time.Hour)
	other := NewJWTManager(&JWTConfig{
		Secret:            "a-completely-different-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "coursecart-test",
	})

	token, _, err := manager.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
