package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"subtracka/internal/entity"
	"subtracka/internal/usecase"
)

const userCols = `id, username, email, password_hash, password_reset_token, password_reset_expiry, refresh_token, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) SaveUser(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u == nil {
		return nil, fmt.Errorf("save user: %w", usecase.ErrInvalidID)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userCols,
		u.Username, u.Email, u.PasswordHash)
	out, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", translateUserErr(err))
	}
	return out, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id strfmt.UUID) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id.String())
	out, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id=%s: %w", id, err)
	}
	return out, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email)
	out, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return out, nil
}

func (r *UserRepository) GetUserByRefreshToken(ctx context.Context, token string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE refresh_token = $1`, token)
	out, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by refresh token: %w", err)
	}
	return out, nil
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id strfmt.UUID, username string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET username = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userCols,
		id.String(), username)
	out, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, fmt.Errorf("update username: %w", translateUserErr(err))
	}
	return out, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id strfmt.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1`,
		id.String(), passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id strfmt.UUID, token *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token = $2, updated_at = now()
		WHERE id = $1`,
		id.String(), token)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetPasswordReset(ctx context.Context, id strfmt.UUID, token *string, expiry *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_reset_token = $2, password_reset_expiry = $3, updated_at = now()
		WHERE id = $1`,
		id.String(), token, expiry)
	if err != nil {
		return fmt.Errorf("set password reset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id strfmt.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u  entity.User
		id string
	)
	err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash,
		&u.PasswordResetToken, &u.PasswordResetExpiry, &u.RefreshToken,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ID = strfmt.UUID(id)
	return &u, nil
}

// translateUserErr maps the unique constraints of the users table onto the
// sentinel errors the use cases expect.
func translateUserErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return usecase.ErrUsernameTaken
		case "users_email_key":
			return usecase.ErrEmailTaken
		}
	}
	return err
}
