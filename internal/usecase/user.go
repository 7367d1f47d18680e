package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"golang.org/x/crypto/bcrypt"

	"subtracka/internal/entity"
)

// User coordinates account use cases. Every mutating operation checks that
// the requester acts on their own record.
type User struct {
	Ur UserRepository
}

func NewUser(ur UserRepository) *User {
	return &User{Ur: ur}
}

// ListUsers returns all accounts.
func (u *User) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return u.Ur.ListUsers(ctx)
}

// GetUser fetches one account, requester must be that account.
func (u *User) GetUser(ctx context.Context, requester, id strfmt.UUID) (*entity.User, error) {
	if requester != id {
		return nil, ErrForbidden
	}
	return u.Ur.GetUserByID(ctx, id)
}

// UpdateUsername renames the account.
func (u *User) UpdateUsername(ctx context.Context, requester, id strfmt.UUID, username string) (*entity.User, error) {
	if requester != id {
		return nil, ErrForbidden
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrInvalidID)
	}
	return u.Ur.UpdateUsername(ctx, id, username)
}

// ChangePassword replaces the password after verifying the current one, then
// closes any open session.
func (u *User) ChangePassword(ctx context.Context, requester, id strfmt.UUID, current, next string) error {
	if requester != id {
		return ErrForbidden
	}
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password shorter than %d characters", ErrWrongPassword, minPasswordLen)
	}
	user, err := u.Ur.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := u.Ur.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	return u.Ur.SetRefreshToken(ctx, id, nil)
}

// DeleteUser removes the account and, through the schema, its subscriptions.
func (u *User) DeleteUser(ctx context.Context, requester, id strfmt.UUID) error {
	if requester != id {
		return ErrForbidden
	}
	return u.Ur.DeleteUser(ctx, id)
}
