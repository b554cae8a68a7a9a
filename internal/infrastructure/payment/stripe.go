// Package payment adapts Stripe Checkout to the billing service's gateway
// interface.
package payment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

const (
	metaCorrelationID   = "correlation_id"
	metaItemID          = "item_id"
	metaPendingURL      = "pending_url"
	metaNotificationURL = "notification_url"
)

var ErrUnsupportedID = fmt.Errorf("unsupported payment id: %w", entity.ErrNotAPayment)

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type intentAPI interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type eventAPI interface {
	Get(id string, params *stripe.EventParams) (*stripe.Event, error)
}

// StripeGateway creates Checkout Sessions and reads payments back by id.
// Accepted ids: checkout sessions (cs_), payment intents (pi_) and events
// (evt_) whose object is one of those.
type StripeGateway struct {
	sessions sessionAPI
	intents  intentAPI
	events   eventAPI
	testMode bool
	dl       helpers.Deadline
}

func NewStripeGateway(secretKey string, dl helpers.Deadline) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{
		sessions: sc.CheckoutSessions,
		intents:  sc.PaymentIntents,
		events:   sc.Events,
		testMode: IsTestKey(secretKey),
		dl:       dl,
	}
}

// IsTestKey reports whether key belongs to Stripe test mode.
func IsTestKey(key string) bool {
	return strings.HasPrefix(key, "sk_test_") || strings.HasPrefix(key, "rk_test_")
}

// toMinorUnits converts 19.9 into 1990.
func toMinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromMinorUnits(v int64) float64 {
	return entity.Round2(float64(v) / 100)
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, in entity.CheckoutIntent) (*entity.Checkout, error) {
	ctx, cancel := g.dl.Apply(ctx)
	defer cancel()

	meta := map[string]string{
		metaCorrelationID:   in.CorrelationID,
		metaItemID:          in.ItemID,
		metaPendingURL:      in.PendingURL,
		metaNotificationURL: in.NotificationURL,
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(in.Currency)),
					UnitAmount: stripe.Int64(toMinorUnits(in.UnitPrice)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(in.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(in.FailureURL),
		ClientReferenceID: stripe.String(in.CorrelationID),
		Metadata:          meta,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: meta,
		},
	}
	params.Context = ctx

	sess, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	co := &entity.Checkout{ID: sess.ID, InitPoint: sess.URL}
	if g.testMode {
		co.SandboxURL = sess.URL
	}
	return co, nil
}

func (g *StripeGateway) FetchPayment(ctx context.Context, id string) (*entity.Payment, error) {
	ctx, cancel := g.dl.Apply(ctx)
	defer cancel()
	return g.fetch(ctx, id, true)
}

func (g *StripeGateway) fetch(ctx context.Context, id string, followEvents bool) (*entity.Payment, error) {
	switch {
	case strings.HasPrefix(id, "cs_"):
		params := &stripe.CheckoutSessionParams{}
		params.Context = ctx
		params.AddExpand("payment_intent.latest_charge")
		sess, err := g.sessions.Get(id, params)
		if err != nil {
			return nil, fmt.Errorf("stripe session %s: %w", id, err)
		}
		return SessionPayment(sess), nil
	case strings.HasPrefix(id, "pi_"):
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		params.AddExpand("latest_charge")
		pi, err := g.intents.Get(id, params)
		if err != nil {
			return nil, fmt.Errorf("stripe payment intent %s: %w", id, err)
		}
		return IntentPayment(pi), nil
	case strings.HasPrefix(id, "evt_") && followEvents:
		params := &stripe.EventParams{}
		params.Context = ctx
		ev, err := g.events.Get(id, params)
		if err != nil {
			return nil, fmt.Errorf("stripe event %s: %w", id, err)
		}
		var objID string
		if ev.Data != nil {
			objID, _ = ev.Data.Object["id"].(string)
		}
		if objID == "" {
			return nil, fmt.Errorf("%w: event %s has no object id", ErrUnsupportedID, id)
		}
		return g.fetch(ctx, objID, false)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedID, id)
}

// chargedAt is when the intent's latest charge was made. Checkouts that
// needed no charge fall back to the object's own creation time.
func chargedAt(pi *stripe.PaymentIntent, fallback int64) time.Time {
	if pi != nil && pi.LatestCharge != nil && pi.LatestCharge.Created > 0 {
		return time.Unix(pi.LatestCharge.Created, 0).UTC()
	}
	return time.Unix(fallback, 0).UTC()
}

// SessionPayment maps a Checkout Session onto the gateway-neutral payment.
func SessionPayment(s *stripe.CheckoutSession) *entity.Payment {
	p := &entity.Payment{
		ID:            s.ID,
		CorrelationID: s.ClientReferenceID,
		Amount:        fromMinorUnits(s.AmountTotal),
		ApprovedAt:    chargedAt(s.PaymentIntent, s.Created),
	}
	if p.CorrelationID == "" {
		p.CorrelationID = s.Metadata[metaCorrelationID]
	}
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		p.Status = entity.PaymentApproved
	case s.Status == stripe.CheckoutSessionStatusExpired:
		p.Status = entity.PaymentRejected
	default:
		p.Status = entity.PaymentPending
	}
	return p
}

// IntentPayment maps a PaymentIntent onto the gateway-neutral payment.
func IntentPayment(pi *stripe.PaymentIntent) *entity.Payment {
	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}
	p := &entity.Payment{
		ID:            pi.ID,
		CorrelationID: pi.Metadata[metaCorrelationID],
		Amount:        fromMinorUnits(amount),
		ApprovedAt:    chargedAt(pi, pi.Created),
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		p.Status = entity.PaymentApproved
	case stripe.PaymentIntentStatusCanceled:
		p.Status = entity.PaymentRejected
	default:
		p.Status = entity.PaymentPending
	}
	return p
}
