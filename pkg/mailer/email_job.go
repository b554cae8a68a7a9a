package mailer

import (
	"context"
	"time"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or Subject with Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome" or "payment_approved"
	Data     map[string]any `json:"data,omitempty"`
}

const (
	TemplateWelcome         = "welcome"
	TemplatePaymentApproved = "payment_approved"
)

// Publisher is satisfied by helpers.RabbitPublisher. kind travels as the
// message type so the worker can log it before decoding.
type Publisher interface {
	Publish(ctx context.Context, kind string, body any) error
}

// Queue enqueues email jobs. A Queue without a publisher drops jobs, which
// is how local runs without a broker behave.
type Queue struct {
	pub Publisher
}

func NewQueue(pub Publisher) *Queue {
	return &Queue{pub: pub}
}

func (q *Queue) Enqueue(ctx context.Context, job EmailJob) error {
	if q == nil || q.pub == nil {
		return nil
	}
	return q.pub.Publish(ctx, job.Template, job)
}

// WelcomeJob is sent once after registration.
func WelcomeJob(to, appName, appURL string) EmailJob {
	return EmailJob{
		To:       to,
		Template: TemplateWelcome,
		Data: map[string]any{
			"Email":   to,
			"AppName": appName,
			"AppURL":  appURL,
		},
	}
}

// PaymentApprovedJob is sent when a payment first activates an account.
func PaymentApprovedJob(to, appName, appURL, paymentID string, amount float64, approvedAt time.Time) EmailJob {
	return EmailJob{
		To:       to,
		Template: TemplatePaymentApproved,
		Data: map[string]any{
			"Email":      to,
			"AppName":    appName,
			"AppURL":     appURL,
			"PaymentID":  paymentID,
			"Amount":     amount,
			"ApprovedAt": approvedAt.UTC().Format(time.RFC3339),
		},
	}
}
