package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtracka/internal/entity"
	"subtracka/internal/usecase"
)

func day(offset int) time.Time {
	return time.Now().AddDate(0, 0, offset).Truncate(24 * time.Hour)
}

func subInput(userID strfmt.UUID) *entity.Subscription {
	renewal := day(20)
	return &entity.Subscription{
		UserID:        userID,
		Name:          "Netflix",
		Price:         9.99,
		Currency:      entity.CurrencyUSD,
		Frequency:     entity.FrequencyMonthly,
		Category:      entity.CategoryEntertainment,
		PaymentMethod: entity.PaymentCreditCard,
		Status:        entity.StatusActive,
		StartDate:     day(0),
		RenewalDate:   &renewal,
	}
}

func seedSub(t *testing.T, sr *SubRepository, userID strfmt.UUID) *entity.Subscription {
	t.Helper()
	s, err := sr.SaveSub(context.Background(), subInput(userID))
	require.NoError(t, err)
	return s
}

func TestSubRepository_SaveSub(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ur := NewUserRepository(pool)
	sr := NewSubRepository(pool)

	u := seedUser(t, ur, "alice", "alice@example.com")

	t.Run("ok", func(t *testing.T) {
		created := seedSub(t, sr, u.ID)
		assert.NotEmpty(t, created.ID.String())
		assert.Equal(t, entity.StatusActive, created.Status)
		assert.Nil(t, created.ReminderHandle)
		require.NotNil(t, created.RenewalDate)

		got, err := sr.GetSubByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Name, got.Name)
		assert.Equal(t, entity.CurrencyUSD, got.Currency)
		assert.Equal(t, entity.FrequencyMonthly, got.Frequency)
	})

	t.Run("err, unknown user", func(t *testing.T) {
		_, err := sr.SaveSub(ctx, subInput(strfmt.UUID(uuid.New().String())))
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})

	t.Run("err, start date before creation rejected by the schema", func(t *testing.T) {
		in := subInput(u.ID)
		in.StartDate = day(-10)
		_, err := sr.SaveSub(ctx, in)
		assert.Error(t, err)
	})
}

func TestSubRepository_GetSubOwner(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ur := NewUserRepository(pool)
	sr := NewSubRepository(pool)

	u := seedUser(t, ur, "alice", "alice@example.com")
	sub := seedSub(t, sr, u.ID)

	t.Run("ok", func(t *testing.T) {
		owner, err := sr.GetSubOwner(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, &entity.Owner{Username: "alice", Email: "alice@example.com"}, owner)
	})

	t.Run("err, unknown sub", func(t *testing.T) {
		_, err := sr.GetSubOwner(ctx, strfmt.UUID(uuid.New().String()))
		assert.ErrorIs(t, err, usecase.ErrSubscriptionNotFound)
	})
}

func TestSubRepository_ListSubsByUser(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ur := NewUserRepository(pool)
	sr := NewSubRepository(pool)

	alice := seedUser(t, ur, "alice", "alice@example.com")
	bob := seedUser(t, ur, "bob", "bob@example.com")

	cheap := subInput(alice.ID)
	cheap.Name = "Spotify"
	cheap.Price = 4.99
	_, err := sr.SaveSub(ctx, cheap)
	require.NoError(t, err)

	expensive := subInput(alice.ID)
	expensive.Name = "Netflix"
	expensive.Price = 19.99
	_, err = sr.SaveSub(ctx, expensive)
	require.NoError(t, err)

	seedSub(t, sr, bob.ID)

	t.Run("ok, only the user's rows", func(t *testing.T) {
		got, err := sr.ListSubsByUser(ctx, alice.ID, usecase.SubFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		for _, s := range got {
			assert.Equal(t, alice.ID, s.UserID)
		}
	})

	t.Run("ok, ordered by price descending", func(t *testing.T) {
		got, err := sr.ListSubsByUser(ctx, alice.ID, usecase.SubFilter{OrderBy: usecase.OrderByPrice, Desc: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Netflix", got[0].Name)
		assert.Equal(t, "Spotify", got[1].Name)
	})

	t.Run("ok, empty for unknown user", func(t *testing.T) {
		got, err := sr.ListSubsByUser(ctx, strfmt.UUID(uuid.New().String()), usecase.SubFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSubRepository_ListUpcomingRenewals(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ur := NewUserRepository(pool)
	sr := NewSubRepository(pool)

	u := seedUser(t, ur, "alice", "alice@example.com")

	soon := subInput(u.ID)
	soon.Name = "RenewsSoon"
	r1 := day(3)
	soon.RenewalDate = &r1
	_, err := sr.SaveSub(ctx, soon)
	require.NoError(t, err)

	far := subInput(u.ID)
	far.Name = "RenewsLater"
	r2 := day(30)
	far.RenewalDate = &r2
	_, err = sr.SaveSub(ctx, far)
	require.NoError(t, err)

	cancelled := subInput(u.ID)
	cancelled.Name = "Cancelled"
	r3 := day(3)
	cancelled.RenewalDate = &r3
	cancelledSaved, err := sr.SaveSub(ctx, cancelled)
	require.NoError(t, err)
	require.NoError(t, sr.SetStatus(ctx, cancelledSaved.ID, entity.StatusCancelled))

	got, err := sr.ListUpcomingRenewals(ctx, u.ID, day(0), day(7))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "RenewsSoon", got[0].Name)
}

func TestSubRepository_UpdateSub(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ur := NewUserRepository(pool)
	sr := NewSubRepository(pool)

	u := seedUser(t, ur, "alice", "alice@example.com")
	sub := seedSub(t, sr, u.ID)

	sub.Name = "Netflix Premium"
	sub.Price = 15.99
	sub.Currency = entity.CurrencyEUR
	sub.Category = entity.CategoryLifestyle
	sub.PaymentMethod = entity.PaymentPaypal

	got, err := sr.UpdateSub(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "Netflix Premium", got.Name)
	assert.Equal(t, 15.99, got.Price)
	assert.Equal(t, entity.CurrencyEUR, got.Currency)
	// dates stay untouched
	assert.WithinDuration(t, sub.StartDate, got.StartDate, time.Second)

	sub.ID = strfmt.UUID(uuid.New().String())
	_, err = sr.UpdateSub(ctx, sub)
	assert.ErrorIs(t, err, usecase.ErrSubscriptionNotFound)
}

func TestSubRepository_CasReminderHandle(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ur := NewUserRepository(pool)
	sr := NewSubRepository(pool)

	u := seedUser(t, ur, "alice", "alice@example.com")
	sub := seedSub(t, sr, u.ID)

	h1 := "sched-1"
	h2 := "sched-2"

	t.Run("ok, set from empty", func(t *testing.T) {
		swapped, err := sr.CasReminderHandle(ctx, sub.ID, nil, &h1)
		require.NoError(t, err)
		assert.True(t, swapped)
	})

	t.Run("stale expectation rejected", func(t *testing.T) {
		swapped, err := sr.CasReminderHandle(ctx, sub.ID, nil, &h2)
		require.NoError(t, err)
		assert.False(t, swapped)

		got, err := sr.GetSubByID(ctx, sub.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReminderHandle)
		assert.Equal(t, h1, *got.ReminderHandle)
	})

	t.Run("ok, replace matching handle", func(t *testing.T) {
		swapped, err := sr.CasReminderHandle(ctx, sub.ID, &h1, &h2)
		require.NoError(t, err)
		assert.True(t, swapped)
	})

	t.Run("ok, clear", func(t *testing.T) {
		swapped, err := sr.CasReminderHandle(ctx, sub.ID, &h2, nil)
		require.NoError(t, err)
		assert.True(t, swapped)

		got, err := sr.GetSubByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ReminderHandle)
	})

	t.Run("unknown sub never swaps", func(t *testing.T) {
		swapped, err := sr.CasReminderHandle(ctx, strfmt.UUID(uuid.New().String()), nil, &h1)
		require.NoError(t, err)
		assert.False(t, swapped)
	})
}

func TestSubRepository_DeleteSub(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	ur := NewUserRepository(pool)
	sr := NewSubRepository(pool)

	u := seedUser(t, ur, "alice", "alice@example.com")
	sub := seedSub(t, sr, u.ID)

	require.NoError(t, sr.DeleteSub(ctx, sub.ID))
	_, err := sr.GetSubByID(ctx, sub.ID)
	assert.ErrorIs(t, err, usecase.ErrSubscriptionNotFound)

	assert.ErrorIs(t, sr.DeleteSub(ctx, sub.ID), usecase.ErrSubscriptionNotFound)
}
