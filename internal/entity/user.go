package entity

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// User is an account owner.
type User struct {
	// ID - user identifier in UUID format
	ID strfmt.UUID
	// Username - globally unique handle
	Username string
	// Email - globally unique contact address
	Email string
	// PasswordHash - bcrypt hash of the account password
	PasswordHash string
	// PasswordResetToken - single-use reset token, nil when no reset is pending
	PasswordResetToken *string
	// PasswordResetExpiry - reset token deadline, set together with the token
	PasswordResetExpiry *time.Time
	// RefreshToken - refresh token of the active session, nil when signed out
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
