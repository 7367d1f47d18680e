package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReminderSubject(t *testing.T) {
	t.Run("final reminder on the last day", func(t *testing.T) {
		got := ReminderSubject(ReminderData{SubName: "Netflix", DaysLeft: 1})
		assert.Equal(t, "⚡ Final Reminder: Netflix renews Tomorrow!", got)
	})

	t.Run("regular reminder earlier", func(t *testing.T) {
		got := ReminderSubject(ReminderData{SubName: "Netflix", DaysLeft: 5})
		assert.Equal(t, "📅 Reminder: Netflix renews in 5 days!", got)
	})
}

func TestReminderBody(t *testing.T) {
	body := ReminderBody(ReminderData{
		Username:      "alice",
		SubName:       "Spotify",
		RenewalDate:   "Mon Jun 10, 2024",
		Price:         "USD 9.99 (monthly)",
		PaymentMethod: "credit card",
		DaysLeft:      2,
	})
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "Spotify")
	assert.Contains(t, body, "Mon Jun 10, 2024")
	assert.Contains(t, body, "USD 9.99 (monthly)")
}

func TestTemplatesEscapeHTML(t *testing.T) {
	body := WelcomeBody(WelcomeData{Username: "<script>alert(1)</script>"})
	assert.NotContains(t, body, "<script>")
}

func TestPasswordResetBody(t *testing.T) {
	body := PasswordResetBody(PasswordResetData{
		Username: "bob",
		ResetURL: "https://app.example.com/reset-password/u1/tok",
	})
	assert.Contains(t, body, `href="https://app.example.com/reset-password/u1/tok"`)
	assert.Contains(t, body, "30 minutes")
}
