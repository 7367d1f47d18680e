// Package qstash talks to an Upstash QStash compatible message queue. Publish
// calls enqueue webhook deliveries back into this service, schedule calls
// register cron-addressed deliveries for a future calendar day.
package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-openapi/strfmt"

	"subtracka/internal/config"
	"subtracka/internal/usecase"
)

const (
	reminderWebhookPath = "/api/v1/webhooks/subscription/reminder"
	emailWebhookPath    = "/api/v1/webhooks/send-email"
)

type Client struct {
	baseURL       string
	token         string
	webhookSecret string
	// callbackBase - public base URL of this service, the queue delivers
	// webhooks to callbackBase + path
	callbackBase string
	httpClient   *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(cfg config.WorkflowConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:       cfg.URL,
		token:         cfg.Token,
		webhookSecret: cfg.WebhookSecret,
		callbackBase:  cfg.CallbackBase,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type publishResponse struct {
	MessageID string `json:"messageId"`
}

type scheduleResponse struct {
	ScheduleID string `json:"scheduleId"`
}

// TriggerEvaluation enqueues an immediate reminder evaluation webhook.
func (c *Client) TriggerEvaluation(ctx context.Context, subID strfmt.UUID) (string, error) {
	body := map[string]string{"subscription_id": subID.String()}
	var out publishResponse
	url := fmt.Sprintf("%s/v2/publish/%s%s", c.baseURL, c.callbackBase, reminderWebhookPath)
	if err := c.post(ctx, url, nil, body, &out); err != nil {
		return "", fmt.Errorf("trigger evaluation: %w", err)
	}
	return out.MessageID, nil
}

// ScheduleAt registers a reminder webhook on the calendar day of fireAt and
// returns the schedule ID as the cancellation handle.
func (c *Client) ScheduleAt(ctx context.Context, fireAt time.Time, subID strfmt.UUID) (string, error) {
	body := map[string]string{"subscription_id": subID.String()}
	headers := map[string]string{
		"Upstash-Cron": fmt.Sprintf("%d %d %d %d *",
			fireAt.Minute(), fireAt.Hour(), fireAt.Day(), int(fireAt.Month())),
	}
	var out scheduleResponse
	url := fmt.Sprintf("%s/v2/schedules/%s%s", c.baseURL, c.callbackBase, reminderWebhookPath)
	if err := c.post(ctx, url, headers, body, &out); err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	return out.ScheduleID, nil
}

// Cancel deletes a schedule. A schedule the queue no longer knows maps to
// ErrHandleGone so callers can treat it as already revoked.
func (c *Client) Cancel(ctx context.Context, handle string) error {
	url := fmt.Sprintf("%s/v2/schedules/%s", c.baseURL, handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("cancel schedule: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cancel schedule: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return usecase.ErrHandleGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("cancel schedule: status %d", resp.StatusCode)
	}
	return nil
}

// PublishEmail enqueues an email job for the send-email webhook.
func (c *Client) PublishEmail(ctx context.Context, job usecase.EmailJob) error {
	url := fmt.Sprintf("%s/v2/publish/%s%s", c.baseURL, c.callbackBase, emailWebhookPath)
	if err := c.post(ctx, url, nil, job, nil); err != nil {
		return fmt.Errorf("publish email: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if c.webhookSecret != "" {
		// forwarded to the webhook request so the receiving side can
		// authenticate the delivery
		req.Header.Set("Upstash-Forward-X-Webhook-Secret", c.webhookSecret)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
