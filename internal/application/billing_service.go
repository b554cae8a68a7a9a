package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	repo "github.com/oksasatya/cofre-digital/internal/domain/repository"
	"github.com/oksasatya/cofre-digital/pkg/mailer"
	"github.com/oksasatya/cofre-digital/pkg/telemetry"
)

const WebhookPath = "/api/billing/webhook"

// PaymentGateway hosts checkouts and is the source of truth for payment
// state. payment.StripeGateway implements it.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, intent entity.CheckoutIntent) (*entity.Checkout, error)
	FetchPayment(ctx context.Context, id string) (*entity.Payment, error)
}

type BillingService struct {
	Gateway  PaymentGateway // nil when no gateway key is configured
	Users    repo.UserRepository
	Emails   EmailQueue
	Logger   *logrus.Logger
	AppURL   string
	AppName  string
	Currency string
}

func NewBillingService(gw PaymentGateway, users repo.UserRepository, emails EmailQueue, logger *logrus.Logger, appURL, appName, currency string) *BillingService {
	if currency == "" {
		currency = "BRL"
	}
	return &BillingService{Gateway: gw, Users: users, Emails: emails, Logger: logger, AppURL: appURL, AppName: appName, Currency: currency}
}

type IntentInput struct {
	Plan          string
	Cycle         string
	CorrelationID string
}

// NormalizeAppURL trims whitespace and trailing slashes and checks the
// result is an absolute http(s) URL the gateway can call back.
func NormalizeAppURL(raw string) (string, error) {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	parsed, err := url.Parse(u)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: app url %q", ErrMisconfigured, u)
	}
	return u, nil
}

// CreateIntent prices the plan and opens a hosted checkout for it.
func (s *BillingService) CreateIntent(ctx context.Context, in IntentInput) (*entity.Checkout, error) {
	plan, ok := entity.Plans[strings.TrimSpace(in.Plan)]
	if !ok {
		return nil, ErrInvalidPlan
	}
	// Anything but "annual" is billed at the standard price.
	cycle := entity.CycleStandard
	if entity.BillingCycle(strings.TrimSpace(in.Cycle)) == entity.CycleAnnual {
		cycle = entity.CycleAnnual
	}
	corr := strings.TrimSpace(in.CorrelationID)
	if corr == "" {
		return nil, ErrMissingCorrelationID
	}
	if s.Gateway == nil {
		return nil, fmt.Errorf("%w: payment gateway", ErrMisconfigured)
	}
	base, err := NormalizeAppURL(s.AppURL)
	if err != nil {
		return nil, err
	}

	title, price := plan.Price(cycle)
	intent := entity.CheckoutIntent{
		ItemID:          plan.ID + "-" + string(cycle),
		Title:           title,
		UnitPrice:       price,
		Currency:        s.Currency,
		CorrelationID:   corr,
		NotificationURL: base + WebhookPath,
		SuccessURL:      base + "/checkout/success",
		PendingURL:      base + "/checkout/pending",
		FailureURL:      base + "/checkout/failure",
	}
	co, err := s.Gateway.CreateCheckout(ctx, intent)
	if err != nil {
		telemetry.BillingEvents.WithLabelValues("intent_failed").Inc()
		return nil, fmt.Errorf("%w: create checkout: %v", ErrUpstream, err)
	}
	telemetry.BillingEvents.WithLabelValues("intent_created").Inc()
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"uid": corr, "item": intent.ItemID, "checkout_id": co.ID}).Info("checkout created")
	}
	return co, nil
}

// NotificationResult is the acknowledgement returned to the gateway.
type NotificationResult struct {
	Ignored bool
	Status  entity.PaymentStatus
	UID     string
	Warning string
}

const (
	WarningMissingReference = "approved payment has no correlation id"
	WarningUnknownAccount   = "approved payment references an unknown account"
)

// HandleNotification re-reads the payment from the gateway and, when it is
// approved, overwrites the account's entitlement with it. Replaying the
// same payment writes the same values.
func (s *BillingService) HandleNotification(ctx context.Context, paymentID string) (*NotificationResult, error) {
	if paymentID == "" {
		telemetry.BillingEvents.WithLabelValues("webhook_ignored").Inc()
		return &NotificationResult{Ignored: true}, nil
	}
	if s.Gateway == nil {
		return nil, fmt.Errorf("%w: payment gateway", ErrMisconfigured)
	}
	p, err := s.Gateway.FetchPayment(ctx, paymentID)
	if errors.Is(err, entity.ErrNotAPayment) {
		telemetry.BillingEvents.WithLabelValues("webhook_ignored").Inc()
		s.logger().WithField("payment_id", paymentID).Debug("notification is not about a payment")
		return &NotificationResult{Ignored: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetch payment %s: %v", ErrUpstream, paymentID, err)
	}
	log := s.logger().WithFields(logrus.Fields{"payment_id": p.ID, "status": p.Status})

	if p.Status != entity.PaymentApproved {
		telemetry.BillingEvents.WithLabelValues("webhook_" + string(p.Status)).Inc()
		log.Info("payment not approved; nothing to apply")
		return &NotificationResult{Status: p.Status}, nil
	}
	if p.CorrelationID == "" {
		telemetry.BillingEvents.WithLabelValues("webhook_unmatched").Inc()
		log.Warn("approved payment without correlation id")
		return &NotificationResult{Status: p.Status, Warning: WarningMissingReference}, nil
	}

	uid := p.CorrelationID
	prev, err := s.Users.ApplyPayment(ctx, uid, entity.PaymentRecord{
		PaymentID:  p.ID,
		Amount:     p.Amount,
		ApprovedAt: p.ApprovedAt,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			telemetry.BillingEvents.WithLabelValues("webhook_unmatched").Inc()
			telemetry.CaptureError(fmt.Errorf("approved payment %s for unknown uid %s", p.ID, uid), map[string]string{"operation": "webhook"})
			log.WithField("uid", uid).Warn("approved payment for unknown account")
			return &NotificationResult{Status: p.Status, Warning: WarningUnknownAccount}, nil
		}
		return nil, fmt.Errorf("%w: apply payment: %v", ErrUpstream, err)
	}
	telemetry.BillingEvents.WithLabelValues("webhook_approved").Inc()
	log.WithField("uid", uid).Info("entitlement activated")

	if prev != p.ID {
		s.notifyApproved(ctx, uid, p)
	}
	return &NotificationResult{Status: p.Status, UID: uid}, nil
}

func (s *BillingService) notifyApproved(ctx context.Context, uid string, p *entity.Payment) {
	if s.Emails == nil {
		return
	}
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		s.logger().WithError(err).WithField("uid", uid).Warn("load user for payment email failed")
		return
	}
	job := mailer.PaymentApprovedJob(u.Email, s.AppName, strings.TrimRight(s.AppURL, "/"), p.ID, p.Amount, p.ApprovedAt)
	if err := s.Emails.Enqueue(ctx, job); err != nil {
		telemetry.EmailJobs.WithLabelValues(job.Template, "enqueue_failed").Inc()
		s.logger().WithError(err).WithField("uid", uid).Warn("enqueue payment email failed")
		return
	}
	telemetry.EmailJobs.WithLabelValues(job.Template, "enqueued").Inc()
}

func (s *BillingService) logger() *logrus.Logger {
	if s.Logger == nil {
		return quietLogger
	}
	return s.Logger
}

// ExtractPaymentID finds the payment id in a webhook call. Sources are
// tried in order: query data.id, query id, body data.id, body
// data.object.id, body id. Numeric ids are accepted as well as strings.
func ExtractPaymentID(query url.Values, body []byte) string {
	if v := strings.TrimSpace(query.Get("data.id")); v != "" {
		return v
	}
	if v := strings.TrimSpace(query.Get("id")); v != "" {
		return v
	}
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		ID   json.RawMessage `json:"id"`
		Data struct {
			ID     json.RawMessage `json:"id"`
			Object struct {
				ID json.RawMessage `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{payload.Data.ID, payload.Data.Object.ID, payload.ID} {
		if v := rawID(raw); v != "" {
			return v
		}
	}
	return ""
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
