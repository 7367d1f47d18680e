package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"golang.org/x/crypto/bcrypt"

	"subtracka/internal/auth"
	"subtracka/internal/entity"
)

const (
	minPasswordLen = 6
	resetTokenTTL  = 30 * time.Minute
)

// Auth handles account registration and session management.
type Auth struct {
	Ur UserRepository
	Tm *auth.TokenManager
	Wf WorkflowClient
	Cl Clock
	// AppURL - public base URL used in password reset links
	AppURL string
	Log    *slog.Logger
}

func NewAuth(ur UserRepository, tm *auth.TokenManager, wf WorkflowClient, cl Clock, appURL string, log *slog.Logger) *Auth {
	if log == nil {
		log = slog.Default()
	}
	return &Auth{Ur: ur, Tm: tm, Wf: wf, Cl: cl, AppURL: appURL, Log: log}
}

// Session is an issued token pair.
type Session struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// SignUp registers a new account and opens a session. The welcome email goes
// through the queue, a delivery problem never fails the registration.
func (a *Auth) SignUp(ctx context.Context, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrInvalidID)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password shorter than %d characters", ErrWrongPassword, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := a.Ur.SaveUser(ctx, &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	sess, err := a.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	a.publishEmail(ctx, EmailJob{Type: EmailWelcome, Info: map[string]string{
		"to":       user.Email,
		"username": user.Username,
	}})
	return sess, nil
}

// SignIn verifies the credentials and opens a session.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := a.Ur.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrWrongPassword
	}
	return a.openSession(ctx, user)
}

// Refresh exchanges a valid refresh token for a new access token. The token
// must match the one stored for the session, a sign-out or password reset
// invalidates it.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := a.Tm.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	user, err := a.Ur.GetUserByID(ctx, userID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", ErrInvalidRefreshToken
	}
	access, err := a.Tm.IssueAccessToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// SignOut invalidates the stored refresh token.
func (a *Auth) SignOut(ctx context.Context, userID strfmt.UUID) error {
	return a.Ur.SetRefreshToken(ctx, userID, nil)
}

// ForgotPassword stores a fresh single-use reset token and mails the reset
// link to the account address.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.Ur.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)
	expiry := a.Cl.Today().Add(resetTokenTTL)
	if err := a.Ur.SetPasswordReset(ctx, user.ID, &token, &expiry); err != nil {
		return err
	}

	a.publishEmail(ctx, EmailJob{Type: EmailPasswordReset, Info: map[string]string{
		"to":        user.Email,
		"username":  user.Username,
		"reset_url": fmt.Sprintf("%s/reset-password/%s/%s", a.AppURL, user.ID, token),
	}})
	return nil
}

// ResetPassword consumes a reset token, replaces the password and closes any
// open session.
func (a *Auth) ResetPassword(ctx context.Context, userID strfmt.UUID, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password shorter than %d characters", ErrWrongPassword, minPasswordLen)
	}
	user, err := a.Ur.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordResetToken == nil || *user.PasswordResetToken != token {
		return ErrInvalidResetToken
	}
	if user.PasswordResetExpiry == nil || user.PasswordResetExpiry.Before(a.Cl.Today()) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.Ur.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	if err := a.Ur.SetPasswordReset(ctx, userID, nil, nil); err != nil {
		return err
	}
	return a.Ur.SetRefreshToken(ctx, userID, nil)
}

func (a *Auth) openSession(ctx context.Context, user *entity.User) (*Session, error) {
	access, err := a.Tm.IssueAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := a.Tm.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := a.Ur.SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, err
	}
	user.RefreshToken = &refresh
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (a *Auth) publishEmail(ctx context.Context, job EmailJob) {
	if err := a.Wf.PublishEmail(ctx, job); err != nil {
		a.Log.Error("publish email failed",
			slog.String("type", job.Type),
			slog.Any("error", err))
	}
}
