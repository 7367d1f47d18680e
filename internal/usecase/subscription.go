package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dromara/carbon/v2"
	"github.com/go-openapi/strfmt"

	"subtracka/internal/entity"
)

const maxSubNameLen = 100

// upcomingWindowDays bounds the upcoming-renewals listing.
const upcomingWindowDays = 7

// Subscription coordinates subscription use cases: CRUD plus the lifecycle
// hooks that keep reminders in step with the data.
type Subscription struct {
	Sr  SubscriptionRepository
	Wf  WorkflowClient
	Rem *Reminder
	Cl  Clock
	Log *slog.Logger
}

func NewSubscription(sr SubscriptionRepository, wf WorkflowClient, rem *Reminder, cl Clock, log *slog.Logger) *Subscription {
	if log == nil {
		log = slog.Default()
	}
	return &Subscription{Sr: sr, Wf: wf, Rem: rem, Cl: cl, Log: log}
}

// RegisterSub validates and saves a new subscription, then kicks off the
// first reminder evaluation and a confirmation email. Both follow-ups are
// best effort, a queue outage never fails the creation.
func (s *Subscription) RegisterSub(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	if err := s.validate(sub); err != nil {
		return nil, err
	}
	// the start date may not precede the day the record is created
	start := carbon.CreateFromStdTime(sub.StartDate).StartOfDay()
	if start.Lt(carbon.CreateFromStdTime(s.Cl.Today()).StartOfDay()) {
		return nil, fmt.Errorf("%w: start_date in the past", ErrInvalidSubscription)
	}
	sub.Status = entity.StatusActive
	if sub.RenewalDate == nil {
		renewal := nextRenewal(sub.StartDate, sub.Frequency, s.Cl.Today())
		sub.RenewalDate = &renewal
	}

	created, err := s.Sr.SaveSub(ctx, sub)
	if err != nil {
		return nil, err
	}

	if _, err := s.Wf.TriggerEvaluation(ctx, created.ID); err != nil {
		s.Log.Error("trigger reminder evaluation failed",
			slog.String("sub_id", created.ID.String()),
			slog.Any("error", err))
	}
	s.publishSubEmail(ctx, EmailCreatedSub, created)
	return created, nil
}

// GetSubByID fetches a subscription, requester must own it.
func (s *Subscription) GetSubByID(ctx context.Context, requester, id strfmt.UUID) (*entity.Subscription, error) {
	sub, err := s.Sr.GetSubByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != requester {
		return nil, ErrForbidden
	}
	return sub, nil
}

// ListSubsByUser lists a user's subscriptions, requester must be that user.
func (s *Subscription) ListSubsByUser(ctx context.Context, requester, userID strfmt.UUID, f SubFilter) ([]*entity.Subscription, error) {
	if requester != userID {
		return nil, ErrForbidden
	}
	if f.OrderBy == "" {
		f.OrderBy = OrderByRenewalDate
	}
	switch f.OrderBy {
	case OrderByPrice, OrderByStartDate, OrderByRenewalDate:
	default:
		return nil, fmt.Errorf("%w: order by %q", ErrInvalidSubscription, f.OrderBy)
	}
	return s.Sr.ListSubsByUser(ctx, userID, f)
}

// UpcomingRenewals lists the requester's active subscriptions renewing within
// the next week.
func (s *Subscription) UpcomingRenewals(ctx context.Context, requester strfmt.UUID) ([]*entity.Subscription, error) {
	from := carbon.CreateFromStdTime(s.Cl.Today()).StartOfDay()
	to := from.AddDays(upcomingWindowDays)
	return s.Sr.ListUpcomingRenewals(ctx, requester, from.StdTime(), to.StdTime())
}

// UpdateSub changes the mutable fields of a subscription: name, price,
// currency, category and payment method. Dates, status and the reminder
// handle only move through their dedicated flows.
func (s *Subscription) UpdateSub(ctx context.Context, requester strfmt.UUID, patch *entity.Subscription) (*entity.Subscription, error) {
	existing, err := s.GetSubByID(ctx, requester, patch.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = patch.Name
	existing.Price = patch.Price
	existing.Currency = patch.Currency
	existing.Category = patch.Category
	existing.PaymentMethod = patch.PaymentMethod
	if err := s.validate(existing); err != nil {
		return nil, err
	}
	return s.Sr.UpdateSub(ctx, existing)
}

// CancelSub revokes the pending reminder and marks the subscription
// cancelled. Cancelling an already cancelled subscription is a no-op.
func (s *Subscription) CancelSub(ctx context.Context, requester, id strfmt.UUID) (*entity.Subscription, error) {
	sub, err := s.GetSubByID(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == entity.StatusCancelled {
		return sub, nil
	}

	// revoke first so the reminder cannot fire against a cancelled row
	if err := s.Rem.Revoke(ctx, id); err != nil {
		s.Log.Error("revoke reminder failed",
			slog.String("sub_id", id.String()),
			slog.Any("error", err))
	}
	if err := s.Sr.SetStatus(ctx, id, entity.StatusCancelled); err != nil {
		return nil, err
	}
	sub.Status = entity.StatusCancelled
	sub.ReminderHandle = nil
	s.publishSubEmail(ctx, EmailCancelledSub, sub)
	return sub, nil
}

// DeleteSub revokes the pending reminder and removes the subscription.
func (s *Subscription) DeleteSub(ctx context.Context, requester, id strfmt.UUID) (*entity.Subscription, error) {
	sub, err := s.GetSubByID(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if err := s.Rem.Revoke(ctx, id); err != nil {
		s.Log.Error("revoke reminder failed",
			slog.String("sub_id", id.String()),
			slog.Any("error", err))
	}
	if err := s.Sr.DeleteSub(ctx, id); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Subscription) publishSubEmail(ctx context.Context, kind string, sub *entity.Subscription) {
	owner, err := s.Sr.GetSubOwner(ctx, sub.ID)
	if err != nil {
		s.Log.Error("load subscription owner failed",
			slog.String("sub_id", sub.ID.String()),
			slog.Any("error", err))
		return
	}
	info := map[string]string{
		"to":       owner.Email,
		"username": owner.Username,
		"sub_name": sub.Name,
		"price":    fmt.Sprintf("%s %.2f (%s)", sub.Currency, sub.Price, sub.Frequency),
	}
	if sub.RenewalDate != nil {
		info["renewal_date"] = sub.RenewalDate.Format("Mon Jan 2, 2006")
	}
	if err := s.Wf.PublishEmail(ctx, EmailJob{Type: kind, Info: info}); err != nil {
		s.Log.Error("publish email failed",
			slog.String("type", kind),
			slog.String("sub_id", sub.ID.String()),
			slog.Any("error", err))
	}
}

func (s *Subscription) validate(sub *entity.Subscription) error {
	if sub == nil {
		return fmt.Errorf("%w: nil", ErrInvalidSubscription)
	}
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Name == "" || len(sub.Name) > maxSubNameLen {
		return fmt.Errorf("%w: name must be 1..%d characters", ErrInvalidSubscription, maxSubNameLen)
	}
	if sub.Price <= 0 {
		return fmt.Errorf("%w: price must be > 0", ErrInvalidSubscription)
	}
	if sub.UserID.String() == "" {
		return fmt.Errorf("%w: empty user_id", ErrInvalidSubscription)
	}
	if !sub.Currency.Valid() {
		return fmt.Errorf("%w: currency %q", ErrInvalidSubscription, sub.Currency)
	}
	if !sub.Frequency.Valid() {
		return fmt.Errorf("%w: frequency %q", ErrInvalidSubscription, sub.Frequency)
	}
	if !sub.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidSubscription, sub.Category)
	}
	if !sub.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method %q", ErrInvalidSubscription, sub.PaymentMethod)
	}
	if sub.StartDate.IsZero() {
		return fmt.Errorf("%w: empty start_date", ErrInvalidSubscription)
	}
	return nil
}

// nextRenewal derives the first renewal date by stepping one billing interval
// at a time from the start date until the date is strictly after today. At
// least one interval is always applied, so the renewal lands strictly after
// the start even when the start date itself is ahead of today.
func nextRenewal(start time.Time, freq entity.Frequency, today time.Time) time.Time {
	step := func(d *carbon.Carbon) *carbon.Carbon {
		switch freq {
		case entity.FrequencyDaily:
			return d.AddDay()
		case entity.FrequencyWeekly:
			return d.AddWeek()
		case entity.FrequencyMonthly:
			return d.AddMonth()
		default:
			return d.AddYear()
		}
	}
	d := step(carbon.CreateFromStdTime(start).StartOfDay())
	t := carbon.CreateFromStdTime(today).StartOfDay()
	for !d.Gt(t) {
		d = step(d)
	}
	return d.StdTime()
}
