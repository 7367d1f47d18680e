package http

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtracka/internal/entity"
)

func TestSignUpInput_Validate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		input := SignUpInput{
			Username: swag.String("alice"),
			Email:    swag.String("alice@example.com"),
			Password: swag.String("password123"),
		}
		assert.NoError(t, input.Validate(strfmt.Default))
	})

	t.Run("err, missing fields", func(t *testing.T) {
		assert.Error(t, (&SignUpInput{}).Validate(strfmt.Default))
	})

	t.Run("err, malformed email", func(t *testing.T) {
		input := SignUpInput{
			Username: swag.String("alice"),
			Email:    swag.String("not-an-email"),
			Password: swag.String("password123"),
		}
		assert.Error(t, input.Validate(strfmt.Default))
	})

	t.Run("err, short password", func(t *testing.T) {
		input := SignUpInput{
			Username: swag.String("alice"),
			Email:    swag.String("alice@example.com"),
			Password: swag.String("short"),
		}
		assert.Error(t, input.Validate(strfmt.Default))
	})
}

func TestSubscriptionInput_Validate(t *testing.T) {
	start := strfmt.Date(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))

	valid := func() SubscriptionInput {
		return SubscriptionInput{
			Name:      swag.String("Netflix"),
			Price:     swag.Float64(9.99),
			Frequency: swag.String("monthly"),
			Category:  swag.String("entertainment"),
			StartDate: &start,
		}
	}

	t.Run("ok, optional fields absent", func(t *testing.T) {
		input := valid()
		assert.NoError(t, input.Validate(strfmt.Default))
	})

	t.Run("err, zero price", func(t *testing.T) {
		input := valid()
		input.Price = swag.Float64(0)
		assert.Error(t, input.Validate(strfmt.Default))
	})

	t.Run("err, unknown frequency", func(t *testing.T) {
		input := valid()
		input.Frequency = swag.String("hourly")
		assert.Error(t, input.Validate(strfmt.Default))
	})

	t.Run("err, unknown currency", func(t *testing.T) {
		input := valid()
		input.Currency = "JPY"
		assert.Error(t, input.Validate(strfmt.Default))
	})
}

func TestSubscriptionInput_toEntity(t *testing.T) {
	start := strfmt.Date(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	userID := strfmt.UUID("60601fee-2bf1-4721-ae6f-7636e79a0cba")

	t.Run("defaults filled in", func(t *testing.T) {
		input := SubscriptionInput{
			Name:      swag.String("Netflix"),
			Price:     swag.Float64(9.99),
			Frequency: swag.String("monthly"),
			Category:  swag.String("entertainment"),
			StartDate: &start,
		}

		sub := input.toEntity(userID)
		assert.Equal(t, userID, sub.UserID)
		assert.Equal(t, entity.CurrencyUSD, sub.Currency)
		assert.Equal(t, entity.PaymentCreditCard, sub.PaymentMethod)
		assert.Nil(t, sub.RenewalDate)
		assert.Equal(t, time.Time(start), sub.StartDate)
	})

	t.Run("explicit values kept", func(t *testing.T) {
		renewal := strfmt.Date(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
		input := SubscriptionInput{
			Name:          swag.String("Netflix"),
			Price:         swag.Float64(9.99),
			Currency:      "EUR",
			Frequency:     swag.String("monthly"),
			Category:      swag.String("entertainment"),
			PaymentMethod: "paypal",
			StartDate:     &start,
			RenewalDate:   &renewal,
		}

		sub := input.toEntity(userID)
		assert.Equal(t, entity.CurrencyEUR, sub.Currency)
		assert.Equal(t, entity.PaymentPaypal, sub.PaymentMethod)
		require.NotNil(t, sub.RenewalDate)
		assert.Equal(t, time.Time(renewal), *sub.RenewalDate)
	})
}
