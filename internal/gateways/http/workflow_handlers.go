package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"

	"subtracka/internal/gateways/http/mw"
	"subtracka/internal/mailer"
	"subtracka/internal/usecase"
)

// setupWebhooks wires the endpoints the external queue delivers into. Both
// sit behind the shared secret the queue forwards with every call.
func setupWebhooks(r *gin.RouterGroup, u UseCases, secret string, log *slog.Logger) {
	grp := r.Group("/webhooks", mw.WebhookSecret(secret))

	grp.POST("/subscription/reminder", func(c *gin.Context) {
		var input ReminderWebhookInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.Validate(strfmt.Default); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		report, err := u.Rem.Evaluate(c, *input.SubscriptionID)
		if err != nil {
			abortError(c, err)
			return
		}
		if report.DeliveryErr != nil {
			// scheduling already happened, only the email failed; the queue
			// retries the whole evaluation
			c.JSON(http.StatusBadGateway, gin.H{"error": report.DeliveryErr.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"subscription_id": report.SubID,
			"skipped":         report.Skipped,
			"delivered":       report.Delivered,
			"scheduled":       report.Scheduled,
		})
	})

	grp.POST("/send-email", func(c *gin.Context) {
		var job usecase.EmailJob
		if err := c.ShouldBindJSON(&job); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := DispatchEmail(c, u.Mail, job); err != nil {
			var unknown *UnknownEmailError
			if errors.As(err, &unknown) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			log.Error("queued email delivery failed",
				slog.String("type", job.Type),
				slog.Any("error", err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "email delivery failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "email sent"})
	})
}

// UnknownEmailError marks a job the dispatcher cannot render, retrying it
// would never help.
type UnknownEmailError struct {
	Reason string
}

func (e *UnknownEmailError) Error() string { return e.Reason }

// DispatchEmail renders a queued email job and sends it. The local scheduler
// calls this directly, in other environments the queue delivers the job back
// through the send-email webhook first.
func DispatchEmail(ctx context.Context, m usecase.Mailer, job usecase.EmailJob) error {
	to := job.Info["to"]
	if to == "" {
		return &UnknownEmailError{Reason: "email job without recipient"}
	}

	switch job.Type {
	case usecase.EmailWelcome:
		d := mailer.WelcomeData{Username: job.Info["username"]}
		return m.Send(ctx, to, mailer.WelcomeSubject(d), mailer.WelcomeBody(d))
	case usecase.EmailPasswordReset:
		d := mailer.PasswordResetData{
			Username: job.Info["username"],
			ResetURL: job.Info["reset_url"],
		}
		return m.Send(ctx, to, mailer.PasswordResetSubject(d), mailer.PasswordResetBody(d))
	case usecase.EmailCreatedSub:
		d := subEventData(job)
		return m.Send(ctx, to, mailer.CreatedSubSubject(d), mailer.CreatedSubBody(d))
	case usecase.EmailCancelledSub:
		d := subEventData(job)
		return m.Send(ctx, to, mailer.CancelledSubSubject(d), mailer.CancelledSubBody(d))
	}
	return &UnknownEmailError{Reason: fmt.Sprintf("unknown email type %q", job.Type)}
}

func subEventData(job usecase.EmailJob) mailer.SubEventData {
	return mailer.SubEventData{
		Username:    job.Info["username"],
		SubName:     job.Info["sub_name"],
		Price:       job.Info["price"],
		RenewalDate: job.Info["renewal_date"],
	}
}
