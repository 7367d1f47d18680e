package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dromara/carbon/v2"
	"github.com/go-openapi/strfmt"

	"subtracka/internal/entity"
	"subtracka/internal/mailer"
)

// OffsetClass is the relation of a reminder date to the current day.
type OffsetClass int

const (
	// OffsetPast - the reminder date is before today, never deliver late
	OffsetPast OffsetClass = iota
	// OffsetDueToday - the reminder date is today, deliver now
	OffsetDueToday
	// OffsetFuture - the reminder date is after today, schedule a callback
	OffsetFuture
)

func (c OffsetClass) String() string {
	switch c {
	case OffsetPast:
		return "past"
	case OffsetDueToday:
		return "due_today"
	case OffsetFuture:
		return "future"
	}
	return "unknown"
}

// OffsetOutcome is the classification of a single day offset.
type OffsetOutcome struct {
	// Offset - days before the renewal date
	Offset int
	Class  OffsetClass
	// FireAt - the reminder date itself (renewal minus Offset days)
	FireAt time.Time
	// DaysUntil - days from today until FireAt, zero unless Class is OffsetFuture
	DaysUntil int64
}

// ClassifyOffset relates one reminder offset to the current day. Both inputs
// are truncated to calendar days first, so wall-clock time and zone offsets
// within a day never change the answer.
func ClassifyOffset(renewal, today time.Time, offset int) OffsetOutcome {
	r := carbon.CreateFromStdTime(renewal).StartOfDay()
	d := carbon.CreateFromStdTime(today).StartOfDay()
	target := r.SubDays(offset)

	out := OffsetOutcome{Offset: offset, FireAt: target.StdTime()}
	switch {
	case target.Lt(d):
		out.Class = OffsetPast
	case target.Gt(d):
		out.Class = OffsetFuture
		out.DaysUntil = d.DiffInDays(target)
	default:
		out.Class = OffsetDueToday
	}
	return out
}

// EvaluationReport describes what a single reminder evaluation did.
type EvaluationReport struct {
	SubID strfmt.UUID
	// Skipped - non-empty when the evaluation was a no-op (inactive or
	// expired subscription), naming the reason
	Skipped  string
	Outcomes []OffsetOutcome
	// Delivered - a due-today reminder email went out
	Delivered bool
	// DeliveryErr - non-nil when the due-today email failed; delivery
	// failures never block scheduling
	DeliveryErr error
	// Scheduled - a future callback was registered and recorded
	Scheduled bool
	FireAt    time.Time
	Handle    string
	// HandleCleared - a stale stored handle was removed because no future
	// reminder remains
	HandleCleared bool
}

// Reminder evaluates and revokes renewal reminders. Durable waiting lives in
// the workflow service; each evaluation classifies every configured offset
// from scratch, sends what is due today and registers at most one future
// callback, so repeated runs over the same state converge to the same result.
type Reminder struct {
	Sr SubscriptionRepository
	Wf WorkflowClient
	M  Mailer
	Cl Clock
	// Offsets - days before renewal at which reminders fire
	Offsets []int
	Log     *slog.Logger
}

func NewReminder(sr SubscriptionRepository, wf WorkflowClient, m Mailer, cl Clock, offsets []int, log *slog.Logger) *Reminder {
	if len(offsets) == 0 {
		offsets = []int{7, 5, 2, 1}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reminder{Sr: sr, Wf: wf, M: m, Cl: cl, Offsets: offsets, Log: log}
}

// Evaluate runs one reminder evaluation for a subscription: classify every
// offset, deliver the due-today reminder if any, then schedule the earliest
// future one, replacing whatever callback was recorded before.
func (r *Reminder) Evaluate(ctx context.Context, subID strfmt.UUID) (*EvaluationReport, error) {
	sub, err := r.Sr.GetSubByID(ctx, subID)
	if err != nil {
		return nil, err
	}
	report := &EvaluationReport{SubID: subID}

	if sub.Status != entity.StatusActive {
		report.Skipped = "status " + string(sub.Status)
		return report, nil
	}
	if sub.RenewalDate == nil {
		return nil, fmt.Errorf("%w: subscription %s", ErrMissingRenewalDate, subID)
	}

	today := r.Cl.Today()
	renewal := carbon.CreateFromStdTime(*sub.RenewalDate).StartOfDay()
	if renewal.Lt(carbon.CreateFromStdTime(today).StartOfDay()) {
		// the renewal itself already passed, the subscription lapsed
		if err := r.Sr.SetStatus(ctx, subID, entity.StatusExpired); err != nil {
			return nil, err
		}
		r.clearHandle(ctx, sub)
		report.Skipped = "renewal date passed"
		report.HandleCleared = sub.ReminderHandle != nil
		return report, nil
	}

	var due *OffsetOutcome
	var next *OffsetOutcome
	for _, off := range r.Offsets {
		out := ClassifyOffset(*sub.RenewalDate, today, off)
		report.Outcomes = append(report.Outcomes, out)
		switch out.Class {
		case OffsetDueToday:
			o := out
			due = &o
		case OffsetFuture:
			if next == nil || out.FireAt.Before(next.FireAt) {
				o := out
				next = &o
			}
		}
	}

	if due != nil {
		if err := r.deliver(ctx, sub, due.Offset); err != nil {
			report.DeliveryErr = fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
			r.Log.Error("reminder delivery failed",
				slog.String("sub_id", subID.String()),
				slog.Int("offset", due.Offset),
				slog.Any("error", err))
		} else {
			report.Delivered = true
		}
	}

	if next == nil {
		report.HandleCleared = r.clearHandle(ctx, sub)
		return report, nil
	}

	handle, err := r.Wf.ScheduleAt(ctx, next.FireAt, subID)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrSchedulingFailed, err)
	}
	swapped, err := r.Sr.CasReminderHandle(ctx, subID, sub.ReminderHandle, &handle)
	if err != nil {
		// the callback exists but was never recorded, take it back
		r.cancelQuiet(ctx, handle)
		return report, fmt.Errorf("%w: record handle: %v", ErrSchedulingFailed, err)
	}
	if !swapped {
		// a concurrent evaluation won, its callback stands
		r.cancelQuiet(ctx, handle)
		return report, nil
	}
	if sub.ReminderHandle != nil {
		r.cancelQuiet(ctx, *sub.ReminderHandle)
	}
	report.Scheduled = true
	report.FireAt = next.FireAt
	report.Handle = handle
	return report, nil
}

// Revoke cancels the outstanding reminder callback, if any. Missing
// subscriptions and already-consumed handles count as success: the goal state
// of no pending reminder holds either way.
func (r *Reminder) Revoke(ctx context.Context, subID strfmt.UUID) error {
	sub, err := r.Sr.GetSubByID(ctx, subID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}
	if sub.ReminderHandle == nil {
		return nil
	}
	if err := r.Wf.Cancel(ctx, *sub.ReminderHandle); err != nil && !errors.Is(err, ErrHandleGone) {
		return fmt.Errorf("cancel reminder: %w", err)
	}
	if _, err := r.Sr.CasReminderHandle(ctx, subID, sub.ReminderHandle, nil); err != nil {
		return fmt.Errorf("clear reminder handle: %w", err)
	}
	return nil
}

// clearHandle drops a recorded handle that no longer has a future reminder
// behind it. Best effort, losing the CAS race means someone else already
// rewrote the handle.
func (r *Reminder) clearHandle(ctx context.Context, sub *entity.Subscription) bool {
	if sub.ReminderHandle == nil {
		return false
	}
	r.cancelQuiet(ctx, *sub.ReminderHandle)
	swapped, err := r.Sr.CasReminderHandle(ctx, sub.ID, sub.ReminderHandle, nil)
	if err != nil {
		r.Log.Error("clear reminder handle failed",
			slog.String("sub_id", sub.ID.String()),
			slog.Any("error", err))
		return false
	}
	return swapped
}

func (r *Reminder) cancelQuiet(ctx context.Context, handle string) {
	if err := r.Wf.Cancel(ctx, handle); err != nil && !errors.Is(err, ErrHandleGone) {
		r.Log.Warn("cancel reminder callback failed",
			slog.String("handle", handle),
			slog.Any("error", err))
	}
}

func (r *Reminder) deliver(ctx context.Context, sub *entity.Subscription, daysLeft int) error {
	owner, err := r.Sr.GetSubOwner(ctx, sub.ID)
	if err != nil {
		return err
	}
	data := mailer.ReminderData{
		Username:      owner.Username,
		SubName:       sub.Name,
		RenewalDate:   sub.RenewalDate.Format("Mon Jan 2, 2006"),
		Price:         fmt.Sprintf("%s %.2f (%s)", sub.Currency, sub.Price, sub.Frequency),
		PaymentMethod: string(sub.PaymentMethod),
		DaysLeft:      daysLeft,
		AccountEmail:  owner.Email,
	}
	return r.M.Send(ctx, owner.Email, mailer.ReminderSubject(data), mailer.ReminderBody(data))
}
