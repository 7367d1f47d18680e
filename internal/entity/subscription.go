package entity

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Currency is the ISO code a subscription is billed in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Frequency is the billing cycle of a subscription.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Category classifies what kind of service a subscription pays for.
type Category string

const (
	CategorySports        Category = "sports"
	CategoryNews          Category = "news"
	CategoryEntertainment Category = "entertainment"
	CategoryLifestyle     Category = "lifestyle"
	CategoryTechnology    Category = "technology"
	CategoryFinance       Category = "finance"
	CategoryPolitics      Category = "politics"
	CategoryOther         Category = "other"
)

// PaymentMethod is how a subscription is paid.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit card"
	PaymentPaypal     PaymentMethod = "paypal"
	PaymentBitcoin    PaymentMethod = "bitcoin"
)

// Status is the lifecycle state of a subscription. Cancellation is
// one-directional: a cancelled subscription is never reactivated.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

// Valid reports whether f is a supported billing frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategorySports, CategoryNews, CategoryEntertainment, CategoryLifestyle,
		CategoryTechnology, CategoryFinance, CategoryPolitics, CategoryOther:
		return true
	}
	return false
}

// Valid reports whether p is a supported payment method.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCreditCard, PaymentPaypal, PaymentBitcoin:
		return true
	}
	return false
}

// Subscription is one recurring paid service tracked for a user.
type Subscription struct {
	// ID - subscription identifier in UUID format
	ID strfmt.UUID
	// UserID - identifier of the owning user
	UserID strfmt.UUID
	// Name - display name of the service
	Name string
	// Price - cost per billing cycle
	Price float64
	// Currency - billing currency, defaults to USD
	Currency Currency
	// Frequency - billing cycle length
	Frequency Frequency
	// Category - service category
	Category Category
	// PaymentMethod - how the subscription is paid, defaults to credit card
	PaymentMethod PaymentMethod
	// Status - lifecycle state, defaults to active
	Status Status
	// StartDate - first billing date, never precedes the creation date
	StartDate time.Time
	// RenewalDate - next billing date; nil until initialized
	RenewalDate *time.Time
	// ReminderHandle - opaque identifier of the single outstanding
	// scheduler job for this subscription, nil when none is registered
	ReminderHandle *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Owner is the contact slice of a subscription's user, used when
// composing reminder emails.
type Owner struct {
	Username string
	Email    string
}
