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

const subCols = `id, user_id, name, price, currency, frequency, category, payment_method, status, start_date, renewal_date, reminder_handle, created_at, updated_at`

type SubRepository struct {
	pool *pgxpool.Pool
}

func NewSubRepository(pool *pgxpool.Pool) *SubRepository {
	return &SubRepository{pool: pool}
}

func (r *SubRepository) SaveSub(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	if sub == nil {
		return nil, fmt.Errorf("save sub: %w", usecase.ErrInvalidSubscription)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions
			(user_id, name, price, currency, frequency, category, payment_method, status, start_date, renewal_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+subCols,
		sub.UserID.String(), sub.Name, sub.Price, string(sub.Currency), string(sub.Frequency),
		string(sub.Category), string(sub.PaymentMethod), string(sub.Status), sub.StartDate, sub.RenewalDate)
	out, err := scanSub(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("save sub: %w", usecase.ErrUserNotFound)
		}
		return nil, fmt.Errorf("save sub: %w", err)
	}
	return out, nil
}

func (r *SubRepository) GetSubByID(ctx context.Context, id strfmt.UUID) (*entity.Subscription, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+subCols+` FROM subscriptions WHERE id = $1`, id.String())
	out, err := scanSub(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get sub by id=%s: %w", id, err)
	}
	return out, nil
}

func (r *SubRepository) GetSubOwner(ctx context.Context, id strfmt.UUID) (*entity.Owner, error) {
	var o entity.Owner
	err := r.pool.QueryRow(ctx, `
		SELECT u.username, u.email
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`, id.String()).Scan(&o.Username, &o.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get sub owner: %w", err)
	}
	return &o, nil
}

func (r *SubRepository) ListSubsByUser(ctx context.Context, userID strfmt.UUID, f usecase.SubFilter) ([]*entity.Subscription, error) {
	// identifiers come from a fixed whitelist, never from the request
	var col string
	switch f.OrderBy {
	case usecase.OrderByPrice:
		col = "price"
	case usecase.OrderByStartDate:
		col = "start_date"
	default:
		col = "renewal_date"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	q := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE user_id = $1 ORDER BY %s %s NULLS LAST, created_at`, subCols, col, dir)
	rows, err := r.pool.Query(ctx, q, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list subs by user: %w", err)
	}
	defer rows.Close()
	return collectSubs(rows, "list subs by user")
}

func (r *SubRepository) ListUpcomingRenewals(ctx context.Context, userID strfmt.UUID, from, to time.Time) ([]*entity.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+subCols+`
		FROM subscriptions
		WHERE user_id = $1
		  AND status = 'active'
		  AND renewal_date BETWEEN $2 AND $3
		ORDER BY renewal_date`,
		userID.String(), from, to)
	if err != nil {
		return nil, fmt.Errorf("list upcoming renewals: %w", err)
	}
	defer rows.Close()
	return collectSubs(rows, "list upcoming renewals")
}

func (r *SubRepository) UpdateSub(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	if sub == nil {
		return nil, fmt.Errorf("update sub: %w", usecase.ErrInvalidSubscription)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE subscriptions
		SET name = $2, price = $3, currency = $4, category = $5, payment_method = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+subCols,
		sub.ID.String(), sub.Name, sub.Price, string(sub.Currency), string(sub.Category), string(sub.PaymentMethod))
	out, err := scanSub(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("update sub: %w", err)
	}
	return out, nil
}

func (r *SubRepository) SetStatus(ctx context.Context, id strfmt.UUID, status entity.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET status = $2, updated_at = now()
		WHERE id = $1`,
		id.String(), string(status))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrSubscriptionNotFound
	}
	return nil
}

// CasReminderHandle swaps the stored handle only when it still matches
// expect. IS NOT DISTINCT FROM makes NULL compare as a value, so an empty
// expectation means "no handle recorded yet".
func (r *SubRepository) CasReminderHandle(ctx context.Context, id strfmt.UUID, expect, next *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET reminder_handle = $3, updated_at = now()
		WHERE id = $1 AND reminder_handle IS NOT DISTINCT FROM $2`,
		id.String(), expect, next)
	if err != nil {
		return false, fmt.Errorf("cas reminder handle: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SubRepository) DeleteSub(ctx context.Context, id strfmt.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete sub: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrSubscriptionNotFound
	}
	return nil
}

func collectSubs(rows pgx.Rows, op string) ([]*entity.Subscription, error) {
	out := make([]*entity.Subscription, 0)
	for rows.Next() {
		s, err := scanSub(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scanSub(row pgx.Row) (*entity.Subscription, error) {
	var (
		s                                                    entity.Subscription
		id, userID                                           string
		currency, frequency, category, paymentMethod, status string
	)
	err := row.Scan(&id, &userID, &s.Name, &s.Price, &currency, &frequency,
		&category, &paymentMethod, &status, &s.StartDate, &s.RenewalDate,
		&s.ReminderHandle, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.ID = strfmt.UUID(id)
	s.UserID = strfmt.UUID(userID)
	s.Currency = entity.Currency(currency)
	s.Frequency = entity.Frequency(frequency)
	s.Category = entity.Category(category)
	s.PaymentMethod = entity.PaymentMethod(paymentMethod)
	s.Status = entity.Status(status)
	return &s, nil
}
