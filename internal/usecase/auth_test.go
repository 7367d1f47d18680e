package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"subtracka/internal/auth"
	"subtracka/internal/config"
	"subtracka/internal/entity"
)

func newAuthUsecase(ctrl *gomock.Controller) (*Auth, *MockUserRepository, *MockWorkflowClient, *MockClock) {
	ur := NewMockUserRepository(ctrl)
	wf := NewMockWorkflowClient(ctrl)
	cl := NewMockClock(ctrl)
	tm := auth.NewTokenManager(config.JWTConfig{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        10 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
	return NewAuth(ur, tm, wf, cl, "https://app.example.com", slog.Default()), ur, wf, cl
}

func storedUser(password string) *entity.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &entity.User{
		ID:           strfmt.UUID(uuid.New().String()),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
	}
}

func Test_auth_SignUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("err, short password", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		ur.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Times(0)

		_, err := uc.SignUp(ctx, "alice", "alice@example.com", "123")
		assert.Error(t, err)
	})

	t.Run("err, email taken", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		ur.EXPECT().SaveUser(ctx, gomock.Any()).Return(nil, ErrEmailTaken)

		_, err := uc.SignUp(ctx, "alice", "alice@example.com", "secret1")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("ok, session opened and welcome queued", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, wf, _ := newAuthUsecase(ctrl)

		ur.EXPECT().SaveUser(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, u *entity.User) (*entity.User, error) {
				assert.Equal(t, "alice", u.Username)
				assert.Equal(t, "alice@example.com", u.Email)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
				u.ID = strfmt.UUID(uuid.New().String())
				return u, nil
			})
		ur.EXPECT().SetRefreshToken(ctx, gomock.Any(), gomock.Any()).Return(nil)
		wf.EXPECT().PublishEmail(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, job EmailJob) error {
				assert.Equal(t, EmailWelcome, job.Type)
				return nil
			})

		sess, err := uc.SignUp(ctx, "alice", "Alice@Example.com", "secret1")
		assert.NoError(t, err)
		assert.NotEmpty(t, sess.AccessToken)
		assert.NotEmpty(t, sess.RefreshToken)
	})
}

func Test_auth_SignIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("err, unknown email", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		ur.EXPECT().GetUserByEmail(ctx, "ghost@example.com").Return(nil, ErrUserNotFound)

		_, err := uc.SignIn(ctx, "ghost@example.com", "secret1")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("err, wrong password", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		ur.EXPECT().GetUserByEmail(ctx, "alice@example.com").Return(storedUser("secret1"), nil)

		_, err := uc.SignIn(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("ok", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		user := storedUser("secret1")
		ur.EXPECT().GetUserByEmail(ctx, "alice@example.com").Return(user, nil)
		ur.EXPECT().SetRefreshToken(ctx, user.ID, gomock.Any()).Return(nil)

		sess, err := uc.SignIn(ctx, "alice@example.com", "secret1")
		assert.NoError(t, err)
		assert.Equal(t, user.ID, sess.User.ID)
		assert.NotEmpty(t, sess.AccessToken)
	})
}

func Test_auth_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("err, garbage token", func(t *testing.T) {
		ctx := context.Background()

		uc, _, _, _ := newAuthUsecase(ctrl)
		_, err := uc.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("err, token no longer stored", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		user := storedUser("secret1")
		token, _ := uc.Tm.IssueRefreshToken(user.ID)

		ur.EXPECT().GetUserByID(ctx, user.ID).Return(user, nil)

		_, err := uc.Refresh(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("ok", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		user := storedUser("secret1")
		token, _ := uc.Tm.IssueRefreshToken(user.ID)
		user.RefreshToken = &token

		ur.EXPECT().GetUserByID(ctx, user.ID).Return(user, nil)

		access, err := uc.Refresh(ctx, token)
		assert.NoError(t, err)

		got, err := uc.Tm.ParseAccessToken(access)
		assert.NoError(t, err)
		assert.Equal(t, user.ID, got)
	})
}

func Test_auth_ForgotPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("err, unknown email", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		ur.EXPECT().GetUserByEmail(ctx, "ghost@example.com").Return(nil, ErrUserNotFound)

		assert.ErrorIs(t, uc.ForgotPassword(ctx, "ghost@example.com"), ErrUserNotFound)
	})

	t.Run("ok, token stored and link mailed", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, wf, cl := newAuthUsecase(ctrl)
		user := storedUser("secret1")
		now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.Local)

		cl.EXPECT().Today().Return(now)
		ur.EXPECT().GetUserByEmail(ctx, user.Email).Return(user, nil)

		var savedToken string
		ur.EXPECT().SetPasswordReset(ctx, user.ID, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ strfmt.UUID, token *string, expiry *time.Time) error {
				assert.Len(t, *token, 32)
				assert.Equal(t, now.Add(30*time.Minute), *expiry)
				savedToken = *token
				return nil
			})
		wf.EXPECT().PublishEmail(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, job EmailJob) error {
				assert.Equal(t, EmailPasswordReset, job.Type)
				assert.Contains(t, job.Info["reset_url"], savedToken)
				return nil
			})

		assert.NoError(t, uc.ForgotPassword(ctx, user.Email))
	})
}

func Test_auth_ResetPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.Local)

	t.Run("err, wrong token", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, _ := newAuthUsecase(ctrl)
		user := storedUser("secret1")
		token := "good"
		expiry := now.Add(10 * time.Minute)
		user.PasswordResetToken = &token
		user.PasswordResetExpiry = &expiry

		ur.EXPECT().GetUserByID(ctx, user.ID).Return(user, nil)

		err := uc.ResetPassword(ctx, user.ID, "bad", "newsecret")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("err, expired token", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, cl := newAuthUsecase(ctrl)
		user := storedUser("secret1")
		token := "good"
		expiry := now.Add(-time.Minute)
		user.PasswordResetToken = &token
		user.PasswordResetExpiry = &expiry

		cl.EXPECT().Today().Return(now)
		ur.EXPECT().GetUserByID(ctx, user.ID).Return(user, nil)

		err := uc.ResetPassword(ctx, user.ID, "good", "newsecret")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("ok, password replaced and sessions closed", func(t *testing.T) {
		ctx := context.Background()

		uc, ur, _, cl := newAuthUsecase(ctrl)
		user := storedUser("secret1")
		token := "good"
		expiry := now.Add(10 * time.Minute)
		user.PasswordResetToken = &token
		user.PasswordResetExpiry = &expiry

		cl.EXPECT().Today().Return(now)
		ur.EXPECT().GetUserByID(ctx, user.ID).Return(user, nil)
		ur.EXPECT().UpdatePassword(ctx, user.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ strfmt.UUID, hash string) error {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("newsecret")))
				return nil
			})
		ur.EXPECT().SetPasswordReset(ctx, user.ID, gomock.Nil(), gomock.Nil()).Return(nil)
		ur.EXPECT().SetRefreshToken(ctx, user.ID, gomock.Nil()).Return(nil)

		assert.NoError(t, uc.ResetPassword(ctx, user.ID, "good", "newsecret"))
	})
}
