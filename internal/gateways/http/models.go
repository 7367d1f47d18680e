package http

import (
	"time"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"

	"subtracka/internal/entity"
	"subtracka/internal/usecase"
)

const dateLayout = "2006-01-02"

var (
	currencyEnum = []interface{}{"USD", "EUR", "GBP"}
	frequencyEnum = []interface{}{"daily", "weekly", "monthly", "yearly"}
	categoryEnum = []interface{}{
		"sports", "news", "entertainment", "lifestyle",
		"technology", "finance", "politics", "other",
	}
	paymentMethodEnum = []interface{}{"credit card", "paypal", "bitcoin"}
)

// SignUpInput is the registration request body.
type SignUpInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (m *SignUpInput) Validate(formats strfmt.Registry) error {
	var res []error
	if err := validate.Required("username", "body", m.Username); err != nil {
		res = append(res, err)
	} else if err := validate.MinLength("username", "body", *m.Username, 1); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("email", "body", m.Email); err != nil {
		res = append(res, err)
	} else if err := validate.FormatOf("email", "body", "email", *m.Email, formats); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("password", "body", m.Password); err != nil {
		res = append(res, err)
	} else if err := validate.MinLength("password", "body", *m.Password, 6); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// SignInInput is the credentials request body.
type SignInInput struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (m *SignInInput) Validate(formats strfmt.Registry) error {
	var res []error
	if err := validate.Required("email", "body", m.Email); err != nil {
		res = append(res, err)
	} else if err := validate.FormatOf("email", "body", "email", *m.Email, formats); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("password", "body", m.Password); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ForgotPasswordInput asks for a password reset link.
type ForgotPasswordInput struct {
	Email *string `json:"email"`
}

func (m *ForgotPasswordInput) Validate(formats strfmt.Registry) error {
	var res []error
	if err := validate.Required("email", "body", m.Email); err != nil {
		res = append(res, err)
	} else if err := validate.FormatOf("email", "body", "email", *m.Email, formats); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ResetPasswordInput carries the replacement password, the token itself
// travels in the URL.
type ResetPasswordInput struct {
	Password *string `json:"password"`
}

func (m *ResetPasswordInput) Validate(strfmt.Registry) error {
	var res []error
	if err := validate.Required("password", "body", m.Password); err != nil {
		res = append(res, err)
	} else if err := validate.MinLength("password", "body", *m.Password, 6); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// UsernameUpdateInput renames an account.
type UsernameUpdateInput struct {
	Username *string `json:"username"`
}

func (m *UsernameUpdateInput) Validate(strfmt.Registry) error {
	var res []error
	if err := validate.Required("username", "body", m.Username); err != nil {
		res = append(res, err)
	} else if err := validate.MinLength("username", "body", *m.Username, 1); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// PasswordChangeInput replaces the password of a signed-in user.
type PasswordChangeInput struct {
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

func (m *PasswordChangeInput) Validate(strfmt.Registry) error {
	var res []error
	if err := validate.Required("current_password", "body", m.CurrentPassword); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("new_password", "body", m.NewPassword); err != nil {
		res = append(res, err)
	} else if err := validate.MinLength("new_password", "body", *m.NewPassword, 6); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// SubscriptionInput is the creation request body. Currency, payment method
// and renewal date are optional, the service fills the defaults.
type SubscriptionInput struct {
	Name          *string      `json:"name"`
	Price         *float64     `json:"price"`
	Currency      string       `json:"currency,omitempty"`
	Frequency     *string      `json:"frequency"`
	Category      *string      `json:"category"`
	PaymentMethod string       `json:"payment_method,omitempty"`
	StartDate     *strfmt.Date `json:"start_date"`
	RenewalDate   *strfmt.Date `json:"renewal_date,omitempty"`
}

func (m *SubscriptionInput) Validate(strfmt.Registry) error {
	var res []error
	if err := validate.Required("name", "body", m.Name); err != nil {
		res = append(res, err)
	} else if err := validate.MinLength("name", "body", *m.Name, 1); err != nil {
		res = append(res, err)
	} else if err := validate.MaxLength("name", "body", *m.Name, 100); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("price", "body", m.Price); err != nil {
		res = append(res, err)
	} else if err := validate.Minimum("price", "body", *m.Price, 0, true); err != nil {
		res = append(res, err)
	}
	if m.Currency != "" {
		if err := validate.Enum("currency", "body", m.Currency, currencyEnum); err != nil {
			res = append(res, err)
		}
	}
	if err := validate.Required("frequency", "body", m.Frequency); err != nil {
		res = append(res, err)
	} else if err := validate.Enum("frequency", "body", *m.Frequency, frequencyEnum); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("category", "body", m.Category); err != nil {
		res = append(res, err)
	} else if err := validate.Enum("category", "body", *m.Category, categoryEnum); err != nil {
		res = append(res, err)
	}
	if m.PaymentMethod != "" {
		if err := validate.Enum("payment_method", "body", m.PaymentMethod, paymentMethodEnum); err != nil {
			res = append(res, err)
		}
	}
	if err := validate.Required("start_date", "body", m.StartDate); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// toEntity builds the subscription owned by userID. Unset optional fields
// stay at their defaults.
func (m *SubscriptionInput) toEntity(userID strfmt.UUID) *entity.Subscription {
	sub := &entity.Subscription{
		UserID:        userID,
		Name:          *m.Name,
		Price:         *m.Price,
		Currency:      entity.CurrencyUSD,
		Frequency:     entity.Frequency(*m.Frequency),
		Category:      entity.Category(*m.Category),
		PaymentMethod: entity.PaymentCreditCard,
		StartDate:     time.Time(*m.StartDate),
	}
	if m.Currency != "" {
		sub.Currency = entity.Currency(m.Currency)
	}
	if m.PaymentMethod != "" {
		sub.PaymentMethod = entity.PaymentMethod(m.PaymentMethod)
	}
	if m.RenewalDate != nil {
		renewal := time.Time(*m.RenewalDate)
		sub.RenewalDate = &renewal
	}
	return sub
}

// SubscriptionUpdateInput carries the mutable subscription fields, everything
// else only moves through its dedicated flow.
type SubscriptionUpdateInput struct {
	Name          *string  `json:"name"`
	Price         *float64 `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	Category      string   `json:"category,omitempty"`
	PaymentMethod string   `json:"payment_method,omitempty"`
}

func (m *SubscriptionUpdateInput) Validate(strfmt.Registry) error {
	var res []error
	if err := validate.Required("name", "body", m.Name); err != nil {
		res = append(res, err)
	} else if err := validate.MinLength("name", "body", *m.Name, 1); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("price", "body", m.Price); err != nil {
		res = append(res, err)
	} else if err := validate.Minimum("price", "body", *m.Price, 0, true); err != nil {
		res = append(res, err)
	}
	if m.Currency != "" {
		if err := validate.Enum("currency", "body", m.Currency, currencyEnum); err != nil {
			res = append(res, err)
		}
	}
	if m.Category != "" {
		if err := validate.Enum("category", "body", m.Category, categoryEnum); err != nil {
			res = append(res, err)
		}
	}
	if m.PaymentMethod != "" {
		if err := validate.Enum("payment_method", "body", m.PaymentMethod, paymentMethodEnum); err != nil {
			res = append(res, err)
		}
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ReminderWebhookInput is the payload the queue delivers to the reminder
// evaluation webhook.
type ReminderWebhookInput struct {
	SubscriptionID *strfmt.UUID `json:"subscription_id"`
}

func (m *ReminderWebhookInput) Validate(formats strfmt.Registry) error {
	var res []error
	if err := validate.Required("subscription_id", "body", m.SubscriptionID); err != nil {
		res = append(res, err)
	} else if err := validate.FormatOf("subscription_id", "body", "uuid", m.SubscriptionID.String(), formats); err != nil {
		res = append(res, err)
	}
	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        strfmt.UUID `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func newUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SessionResponse is returned by sign-up and sign-in, the refresh token
// travels separately as an httpOnly cookie.
type SessionResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

func newSessionResponse(s *usecase.Session) SessionResponse {
	return SessionResponse{User: newUserResponse(s.User), AccessToken: s.AccessToken}
}

// SubscriptionResponse is the public view of a subscription. Dates are plain
// calendar days.
type SubscriptionResponse struct {
	ID            strfmt.UUID `json:"id"`
	UserID        strfmt.UUID `json:"user_id"`
	Name          string      `json:"name"`
	Price         float64     `json:"price"`
	Currency      string      `json:"currency"`
	Frequency     string      `json:"frequency"`
	Category      string      `json:"category"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`
	StartDate     string      `json:"start_date"`
	RenewalDate   *string     `json:"renewal_date,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func newSubscriptionResponse(s *entity.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		Name:          s.Name,
		Price:         s.Price,
		Currency:      string(s.Currency),
		Frequency:     string(s.Frequency),
		Category:      string(s.Category),
		PaymentMethod: string(s.PaymentMethod),
		Status:        string(s.Status),
		StartDate:     s.StartDate.Format(dateLayout),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.RenewalDate != nil {
		renewal := s.RenewalDate.Format(dateLayout)
		resp.RenewalDate = &renewal
	}
	return resp
}

func newSubscriptionList(subs []*entity.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, newSubscriptionResponse(s))
	}
	return out
}
