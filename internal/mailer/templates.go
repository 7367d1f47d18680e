package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const baseTmpl = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.highlight { background-color: #f8f9fa; border-radius: 5px; padding: 15px; margin: 20px 0; }
		.detail-row { margin: 10px 0; }
		.label { font-weight: bold; }
		.footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		{{template "content" .}}
		<div class="footer">
			<p>This is an automated message, no reply is needed.</p>
		</div>
	</div>
</body>
</html>
`

func mustParse(name, content string) *template.Template {
	t := template.Must(template.New(name).Parse(baseTmpl))
	return template.Must(t.Parse(`{{define "content"}}` + content + `{{end}}`))
}

var (
	reminderTmpl = mustParse("reminder", `
		<h2>Hello {{.Username}},</h2>
		<p>Your <strong>{{.SubName}}</strong> subscription renews on <strong>{{.RenewalDate}}</strong>.</p>
		<div class="highlight">
			<div class="detail-row"><span class="label">Plan:</span> {{.SubName}}</div>
			<div class="detail-row"><span class="label">Price:</span> {{.Price}}</div>
			<div class="detail-row"><span class="label">Payment method:</span> {{.PaymentMethod}}</div>
		</div>
		<p>Cancel before the renewal date if you no longer need it.</p>`)

	welcomeTmpl = mustParse("welcome", `
		<h2>Welcome {{.Username}}!</h2>
		<p>Your account is ready. Add your first subscription and renewal reminders
		will start arriving before each charge.</p>`)

	passwordResetTmpl = mustParse("password-reset", `
		<h2>Hello {{.Username}},</h2>
		<p>A password reset was requested for your account. The link below is valid
		for 30 minutes:</p>
		<div class="highlight"><a href="{{.ResetURL}}">Reset your password</a></div>
		<p>If you did not request this, ignore this message.</p>`)

	createdSubTmpl = mustParse("created-sub", `
		<h2>Hello {{.Username}},</h2>
		<p>Your <strong>{{.SubName}}</strong> subscription is now tracked.</p>
		<div class="highlight">
			<div class="detail-row"><span class="label">Price:</span> {{.Price}}</div>
			<div class="detail-row"><span class="label">Next renewal:</span> {{.RenewalDate}}</div>
		</div>`)

	cancelledSubTmpl = mustParse("cancelled-sub", `
		<h2>Hello {{.Username}},</h2>
		<p>Your <strong>{{.SubName}}</strong> subscription was cancelled. No further
		renewal reminders will be sent for it.</p>`)
)

// ReminderData fills the renewal reminder email.
type ReminderData struct {
	Username      string
	SubName       string
	RenewalDate   string
	Price         string
	PaymentMethod string
	// DaysLeft - days between today and the renewal date
	DaysLeft     int
	AccountEmail string
}

func ReminderSubject(d ReminderData) string {
	if d.DaysLeft == 1 {
		return fmt.Sprintf("⚡ Final Reminder: %s renews Tomorrow!", d.SubName)
	}
	return fmt.Sprintf("📅 Reminder: %s renews in %d days!", d.SubName, d.DaysLeft)
}

func ReminderBody(d ReminderData) string { return render(reminderTmpl, d) }

// WelcomeData fills the sign-up email.
type WelcomeData struct {
	Username string
}

func WelcomeSubject(d WelcomeData) string {
	return fmt.Sprintf("Welcome aboard, %s!", d.Username)
}

func WelcomeBody(d WelcomeData) string { return render(welcomeTmpl, d) }

// PasswordResetData fills the reset email.
type PasswordResetData struct {
	Username string
	ResetURL string
}

func PasswordResetSubject(PasswordResetData) string { return "Reset your password" }

func PasswordResetBody(d PasswordResetData) string { return render(passwordResetTmpl, d) }

// SubEventData fills the created and cancelled subscription emails.
type SubEventData struct {
	Username    string
	SubName     string
	Price       string
	RenewalDate string
}

func CreatedSubSubject(d SubEventData) string {
	return fmt.Sprintf("✅ %s is now tracked", d.SubName)
}

func CreatedSubBody(d SubEventData) string { return render(createdSubTmpl, d) }

func CancelledSubSubject(d SubEventData) string {
	return fmt.Sprintf("Your %s subscription was cancelled", d.SubName)
}

func CancelledSubBody(d SubEventData) string { return render(cancelledSubTmpl, d) }

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
