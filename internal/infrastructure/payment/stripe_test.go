package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
)

type fakeSessions struct {
	created *stripe.CheckoutSessionParams
	byID    map[string]*stripe.CheckoutSession
}

func (f *fakeSessions) New(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = p
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (f *fakeSessions) Get(id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, errors.New("no such session")
}

type fakeIntents map[string]*stripe.PaymentIntent

func (f fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if pi, ok := f[id]; ok {
		return pi, nil
	}
	return nil, errors.New("no such intent")
}

type fakeEvents map[string]*stripe.Event

func (f fakeEvents) Get(id string, _ *stripe.EventParams) (*stripe.Event, error) {
	if ev, ok := f[id]; ok {
		return ev, nil
	}
	return nil, errors.New("no such event")
}

func intent() entity.CheckoutIntent {
	return entity.CheckoutIntent{
		ItemID:          "mensal-annual",
		Title:           "Plano Mensal (Anual - 25% OFF)",
		UnitPrice:       179.1,
		Currency:        "BRL",
		CorrelationID:   "uid-1",
		NotificationURL: "https://app.example/api/billing/webhook",
		SuccessURL:      "https://app.example/checkout/success",
		PendingURL:      "https://app.example/checkout/pending",
		FailureURL:      "https://app.example/checkout/failure",
	}
}

func TestCreateCheckout_BuildsSession(t *testing.T) {
	sessions := &fakeSessions{}
	g := &StripeGateway{sessions: sessions, testMode: true}

	co, err := g.CreateCheckout(context.Background(), intent())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", co.ID)
	assert.Equal(t, co.InitPoint, co.SandboxURL)

	p := sessions.created
	require.NotNil(t, p)
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, int64(17910), stripe.Int64Value(p.LineItems[0].PriceData.UnitAmount))
	assert.Equal(t, "brl", stripe.StringValue(p.LineItems[0].PriceData.Currency))
	assert.Equal(t, "uid-1", stripe.StringValue(p.ClientReferenceID))
	assert.Equal(t, "https://app.example/checkout/failure", stripe.StringValue(p.CancelURL))
	assert.Equal(t, "https://app.example/checkout/pending", p.Metadata[metaPendingURL])
	assert.Equal(t, "uid-1", p.PaymentIntentData.Metadata[metaCorrelationID])
}

func TestCreateCheckout_LiveModeHasNoSandboxURL(t *testing.T) {
	g := &StripeGateway{sessions: &fakeSessions{}}
	co, err := g.CreateCheckout(context.Background(), intent())
	require.NoError(t, err)
	assert.Empty(t, co.SandboxURL)
}

func TestSessionPayment_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		s    stripe.CheckoutSession
		want entity.PaymentStatus
	}{
		{"paid", stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid, Status: stripe.CheckoutSessionStatusComplete}, entity.PaymentApproved},
		{"free", stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusNoPaymentRequired}, entity.PaymentApproved},
		{"open", stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid, Status: stripe.CheckoutSessionStatusOpen}, entity.PaymentPending},
		{"expired", stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid, Status: stripe.CheckoutSessionStatusExpired}, entity.PaymentRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SessionPayment(&tc.s).Status)
		})
	}
}

func TestIntentPayment_StatusMapping(t *testing.T) {
	assert.Equal(t, entity.PaymentApproved, IntentPayment(&stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded}).Status)
	assert.Equal(t, entity.PaymentRejected, IntentPayment(&stripe.PaymentIntent{Status: stripe.PaymentIntentStatusCanceled}).Status)
	assert.Equal(t, entity.PaymentPending, IntentPayment(&stripe.PaymentIntent{Status: stripe.PaymentIntentStatusProcessing}).Status)
}

func TestFetchPayment_ByKind(t *testing.T) {
	g := &StripeGateway{
		sessions: &fakeSessions{byID: map[string]*stripe.CheckoutSession{
			"cs_1": {
				ID: "cs_1", ClientReferenceID: "uid-1", AmountTotal: 1990, Created: 1700000000,
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			},
		}},
		intents: fakeIntents{"pi_1": {
			ID: "pi_1", AmountReceived: 2990, Created: 1700000100,
			Status:   stripe.PaymentIntentStatusSucceeded,
			Metadata: map[string]string{metaCorrelationID: "uid-2"},
		}},
		events: fakeEvents{"evt_1": {
			ID:   "evt_1",
			Data: &stripe.EventData{Object: map[string]interface{}{"id": "cs_1", "object": "checkout.session"}},
		}},
	}

	p, err := g.FetchPayment(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", p.CorrelationID)
	assert.Equal(t, 19.9, p.Amount)
	assert.Equal(t, int64(1700000000), p.ApprovedAt.Unix())

	p, err = g.FetchPayment(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "uid-2", p.CorrelationID)
	assert.Equal(t, 29.9, p.Amount)

	p, err = g.FetchPayment(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", p.ID)

	_, err = g.FetchPayment(context.Background(), "12345")
	assert.ErrorIs(t, err, ErrUnsupportedID)
}

func TestFetchPayment_NonPaymentObjects(t *testing.T) {
	g := &StripeGateway{
		sessions: &fakeSessions{},
		intents:  fakeIntents{},
		events: fakeEvents{
			"evt_charge": {ID: "evt_charge", Data: &stripe.EventData{Object: map[string]interface{}{"id": "ch_1", "object": "charge"}}},
			"evt_empty":  {ID: "evt_empty", Data: &stripe.EventData{Object: map[string]interface{}{}}},
			"evt_nested": {ID: "evt_nested", Data: &stripe.EventData{Object: map[string]interface{}{"id": "evt_other"}}},
		},
	}
	for _, id := range []string{"ch_1", "re_1", "evt_charge", "evt_empty", "evt_nested"} {
		_, err := g.FetchPayment(context.Background(), id)
		assert.ErrorIs(t, err, entity.ErrNotAPayment, id)
	}

	// A lookup failure is not the same thing.
	_, err := g.FetchPayment(context.Background(), "pi_missing")
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrNotAPayment)
}

func TestApprovedAtComesFromTheCharge(t *testing.T) {
	charged := &stripe.PaymentIntent{
		ID: "pi_1", Created: 1700000000, Status: stripe.PaymentIntentStatusSucceeded,
		LatestCharge: &stripe.Charge{ID: "ch_1", Created: 1700000900},
	}
	assert.Equal(t, int64(1700000900), IntentPayment(charged).ApprovedAt.Unix())

	sess := &stripe.CheckoutSession{
		ID: "cs_1", Created: 1700000000, PaymentIntent: charged,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
	}
	assert.Equal(t, int64(1700000900), SessionPayment(sess).ApprovedAt.Unix())

	free := &stripe.CheckoutSession{ID: "cs_2", Created: 1700000100, PaymentStatus: stripe.CheckoutSessionPaymentStatusNoPaymentRequired}
	assert.Equal(t, int64(1700000100), SessionPayment(free).ApprovedAt.Unix())
}

func TestIsTestKey(t *testing.T) {
	assert.True(t, IsTestKey("sk_test_abc"))
	assert.False(t, IsTestKey("sk_live_abc"))
}
