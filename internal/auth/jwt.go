package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/golang-jwt/jwt/v5"

	"subtracka/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and verifies the HS256 access and refresh tokens used
// by the API. Access tokens are short-lived; refresh tokens are persisted
// against the user row and exchanged for new access tokens.
type TokenManager struct {
	secret        []byte
	refreshSecret []byte
	expiry        time.Duration
	refreshExpiry time.Duration
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	refreshExpiry := cfg.RefreshExpiry
	if refreshExpiry <= 0 {
		refreshExpiry = 24 * time.Hour
	}
	return &TokenManager{
		secret:        []byte(cfg.Secret),
		refreshSecret: []byte(cfg.RefreshSecret),
		expiry:        expiry,
		refreshExpiry: refreshExpiry,
	}
}

// IssueAccessToken signs a short-lived token carrying the user ID as subject.
func (m *TokenManager) IssueAccessToken(userID strfmt.UUID) (string, error) {
	return m.issue(userID, m.secret, m.expiry)
}

// IssueRefreshToken signs the long-lived token persisted on the user row.
func (m *TokenManager) IssueRefreshToken(userID strfmt.UUID) (string, error) {
	return m.issue(userID, m.refreshSecret, m.refreshExpiry)
}

func (m *TokenManager) issue(userID strfmt.UUID, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies an access token and returns the user ID it was
// issued for.
func (m *TokenManager) ParseAccessToken(raw string) (strfmt.UUID, error) {
	return m.parse(raw, m.secret)
}

// ParseRefreshToken verifies a refresh token and returns the user ID it was
// issued for.
func (m *TokenManager) ParseRefreshToken(raw string) (strfmt.UUID, error) {
	return m.parse(raw, m.refreshSecret)
}

func (m *TokenManager) parse(raw string, secret []byte) (strfmt.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return strfmt.UUID(claims.Subject), nil
}
