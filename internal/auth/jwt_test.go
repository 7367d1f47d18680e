package auth

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"subtracka/internal/config"
)

func newManager() *TokenManager {
	return NewTokenManager(config.JWTConfig{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        10 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newManager()
	userID := strfmt.UUID(uuid.New().String())

	access, err := m.IssueAccessToken(userID)
	assert.NoError(t, err)
	got, err := m.ParseAccessToken(access)
	assert.NoError(t, err)
	assert.Equal(t, userID, got)

	refresh, err := m.IssueRefreshToken(userID)
	assert.NoError(t, err)
	got, err = m.ParseRefreshToken(refresh)
	assert.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenManager_SecretsNotInterchangeable(t *testing.T) {
	m := newManager()
	userID := strfmt.UUID(uuid.New().String())

	refresh, err := m.IssueRefreshToken(userID)
	assert.NoError(t, err)

	_, err = m.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager(config.JWTConfig{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        -time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
	// negative expiry falls back to the default, so build one manually
	m.expiry = -time.Minute

	token, err := m.IssueAccessToken(strfmt.UUID(uuid.New().String()))
	assert.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	m := newManager()
	_, err := m.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
