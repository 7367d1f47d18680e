// Package local is an in-process stand-in for the external queue, used when
// no queue service is configured. Schedules live in a cron runner and are
// lost on restart, which is acceptable for development.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/robfig/cron/v3"

	"subtracka/internal/usecase"
)

// EvaluateFunc runs a reminder evaluation for a subscription.
type EvaluateFunc func(ctx context.Context, subID strfmt.UUID) error

// EmailFunc delivers a queued email job.
type EmailFunc func(ctx context.Context, job usecase.EmailJob) error

type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
	seq  atomic.Int64

	mu      sync.Mutex
	entries map[string]cron.EntryID

	evaluate EvaluateFunc
	email    EmailFunc
}

func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// SetEvaluator wires the evaluation callback. Set after construction because
// the reminder use case itself depends on this scheduler.
func (s *Scheduler) SetEvaluator(fn EvaluateFunc) { s.evaluate = fn }

// SetEmailFunc wires the email delivery callback.
func (s *Scheduler) SetEmailFunc(fn EmailFunc) { s.email = fn }

func (s *Scheduler) Start() { s.cron.Start() }

func (s *Scheduler) Stop() { s.cron.Stop() }

// TriggerEvaluation runs the evaluation asynchronously, mirroring the queue
// semantics of the real client.
func (s *Scheduler) TriggerEvaluation(_ context.Context, subID strfmt.UUID) (string, error) {
	runID := fmt.Sprintf("local-run-%d", s.seq.Add(1))
	go func() {
		if err := s.evaluate(context.Background(), subID); err != nil {
			s.log.Error("local reminder evaluation failed",
				slog.String("sub_id", subID.String()),
				slog.Any("error", err))
		}
	}()
	return runID, nil
}

// ScheduleAt registers a one-shot cron entry on the calendar day of fireAt.
func (s *Scheduler) ScheduleAt(_ context.Context, fireAt time.Time, subID strfmt.UUID) (string, error) {
	handle := fmt.Sprintf("local-sched-%d", s.seq.Add(1))
	spec := fmt.Sprintf("%d %d %d %d *", fireAt.Minute(), fireAt.Hour(), fireAt.Day(), int(fireAt.Month()))

	id, err := s.cron.AddFunc(spec, func() {
		// one shot, the entry removes itself after firing
		s.remove(handle)
		if err := s.evaluate(context.Background(), subID); err != nil {
			s.log.Error("local reminder evaluation failed",
				slog.String("sub_id", subID.String()),
				slog.Any("error", err))
		}
	})
	if err != nil {
		return "", fmt.Errorf("add cron entry: %w", err)
	}

	s.mu.Lock()
	s.entries[handle] = id
	s.mu.Unlock()
	return handle, nil
}

// Cancel removes a scheduled entry. Unknown handles report ErrHandleGone, the
// entry either fired already or never belonged to this process.
func (s *Scheduler) Cancel(_ context.Context, handle string) error {
	s.mu.Lock()
	id, ok := s.entries[handle]
	if ok {
		delete(s.entries, handle)
	}
	s.mu.Unlock()

	if !ok {
		return usecase.ErrHandleGone
	}
	s.cron.Remove(id)
	return nil
}

// PublishEmail delivers the job asynchronously through the wired callback.
func (s *Scheduler) PublishEmail(_ context.Context, job usecase.EmailJob) error {
	go func() {
		if err := s.email(context.Background(), job); err != nil {
			s.log.Error("local email delivery failed",
				slog.String("type", job.Type),
				slog.Any("error", err))
		}
	}()
	return nil
}

func (s *Scheduler) remove(handle string) {
	s.mu.Lock()
	id, ok := s.entries[handle]
	if ok {
		delete(s.entries, handle)
	}
	s.mu.Unlock()
	if ok {
		s.cron.Remove(id)
	}
}
