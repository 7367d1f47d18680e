package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/go-openapi/strfmt"

	"subtracka/internal/entity"
)

//go:generate go run github.com/golang/mock/mockgen@v1.6.0 -destination=usecase_mock.go -package=usecase subtracka/internal/usecase UserRepository,SubscriptionRepository,WorkflowClient,Mailer,Clock

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already exists")
	ErrWrongPassword        = errors.New("wrong password")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrForbidden            = errors.New("forbidden")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidSubscription  = errors.New("invalid subscription")
	ErrInvalidID            = errors.New("invalid id")
	ErrMissingRenewalDate   = errors.New("subscription has no renewal date")
	ErrDeliveryFailed       = errors.New("reminder delivery failed")
	ErrSchedulingFailed     = errors.New("reminder scheduling failed")

	// ErrHandleGone is returned by WorkflowClient.Cancel when the scheduler no
	// longer knows the handle (already fired or already cancelled). Revocation
	// treats it as success: no future reminder exists either way.
	ErrHandleGone = errors.New("scheduled reminder already gone")
)

// SubOrder names the columns a subscription listing may be sorted on.
type SubOrder string

const (
	OrderByPrice       SubOrder = "price"
	OrderByStartDate   SubOrder = "start_date"
	OrderByRenewalDate SubOrder = "renewal_date"
)

// SubFilter — ordering options for a user's subscription listing
type SubFilter struct {
	// OrderBy - column to sort on, renewal date when empty
	OrderBy SubOrder
	// Desc - sort descending instead of ascending
	Desc bool
}

// UserRepository — persistence for accounts. Implementations translate
// uniqueness violations into ErrUsernameTaken/ErrEmailTaken and missing rows
// into ErrUserNotFound.
type UserRepository interface {
	// SaveUser - save a new user
	SaveUser(ctx context.Context, u *entity.User) (*entity.User, error)
	// GetUserByID - get a user by ID
	GetUserByID(ctx context.Context, id strfmt.UUID) (*entity.User, error)
	// GetUserByEmail - get a user by email
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetUserByRefreshToken - get the user holding the given refresh token
	GetUserByRefreshToken(ctx context.Context, token string) (*entity.User, error)
	// ListUsers - list all users
	ListUsers(ctx context.Context) ([]*entity.User, error)
	// UpdateUsername - change the username, returning the updated user
	UpdateUsername(ctx context.Context, id strfmt.UUID, username string) (*entity.User, error)
	// UpdatePassword - replace the password hash
	UpdatePassword(ctx context.Context, id strfmt.UUID, passwordHash string) error
	// SetRefreshToken - store or clear (nil) the session refresh token
	SetRefreshToken(ctx context.Context, id strfmt.UUID, token *string) error
	// SetPasswordReset - store or clear (nil, nil) the reset token and expiry
	SetPasswordReset(ctx context.Context, id strfmt.UUID, token *string, expiry *time.Time) error
	// DeleteUser - delete a user and, by cascade, their subscriptions
	DeleteUser(ctx context.Context, id strfmt.UUID) error
}

// SubscriptionRepository — persistence for subscriptions and their reminder
// handle column.
type SubscriptionRepository interface {
	// SaveSub - save a new subscription
	SaveSub(ctx context.Context, s *entity.Subscription) (*entity.Subscription, error)
	// GetSubByID - get a subscription by ID
	GetSubByID(ctx context.Context, id strfmt.UUID) (*entity.Subscription, error)
	// GetSubOwner - username and email of the owning user
	GetSubOwner(ctx context.Context, id strfmt.UUID) (*entity.Owner, error)
	// ListSubsByUser - list a user's subscriptions using SubFilter
	ListSubsByUser(ctx context.Context, userID strfmt.UUID, f SubFilter) ([]*entity.Subscription, error)
	// ListUpcomingRenewals - active subscriptions renewing in [from, to]
	ListUpcomingRenewals(ctx context.Context, userID strfmt.UUID, from, to time.Time) ([]*entity.Subscription, error)
	// UpdateSub - update subscription data, returning the updated row
	UpdateSub(ctx context.Context, s *entity.Subscription) (*entity.Subscription, error)
	// SetStatus - update the lifecycle status
	SetStatus(ctx context.Context, id strfmt.UUID, status entity.Status) error
	// CasReminderHandle - replace the stored handle only if it still equals
	// expect, reporting whether the swap happened. A losing writer is
	// rejected, not errored.
	CasReminderHandle(ctx context.Context, id strfmt.UUID, expect, next *string) (bool, error)
	// DeleteSub - delete a subscription
	DeleteSub(ctx context.Context, id strfmt.UUID) error
}

// EmailJob is an asynchronous email request published to the workflow service
// and delivered back through the send-email webhook.
type EmailJob struct {
	Type string            `json:"type"`
	Info map[string]string `json:"info"`
}

const (
	EmailWelcome       = "welcome"
	EmailPasswordReset = "password-reset"
	EmailCreatedSub    = "created-sub"
	EmailCancelledSub  = "cancelled-sub"
)

// WorkflowClient — the external scheduler/queue collaborator. Durable waiting
// happens there, never in-process: ScheduleAt registers a future callback and
// returns an opaque handle, Cancel revokes one.
type WorkflowClient interface {
	// TriggerEvaluation - enqueue an immediate reminder evaluation for subID
	TriggerEvaluation(ctx context.Context, subID strfmt.UUID) (runID string, err error)
	// ScheduleAt - register a reminder callback at fireAt, returns the handle
	ScheduleAt(ctx context.Context, fireAt time.Time, subID strfmt.UUID) (handle string, err error)
	// Cancel - revoke a scheduled callback; ErrHandleGone when already consumed
	Cancel(ctx context.Context, handle string) error
	// PublishEmail - enqueue an email for asynchronous delivery
	PublishEmail(ctx context.Context, job EmailJob) error
}

// Mailer — synchronous mail delivery
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Clock — current-date source, injectable so reminder classification is
// testable at day granularity
type Clock interface {
	Today() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

func (SystemClock) Today() time.Time { return time.Now() }
