package entity

import (
	"errors"
	"math"
	"time"
)

// PaymentStatus is the gateway-neutral status of a payment.
type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "approved"
	PaymentPending  PaymentStatus = "pending"
	PaymentRejected PaymentStatus = "rejected"
)

// Plan is a purchasable subscription plan.
type Plan struct {
	ID      string
	Name    string
	Monthly float64
	// AnnualAllowed reports whether the discounted annual cycle is offered.
	AnnualAllowed bool
}

var Plans = map[string]Plan{
	"24h":     {ID: "24h", Name: "Plano 24 horas", Monthly: 9.9},
	"mensal":  {ID: "mensal", Name: "Plano Mensal", Monthly: 19.9, AnnualAllowed: true},
	"premium": {ID: "premium", Name: "Plano Premium", Monthly: 29.9, AnnualAllowed: true},
}

// BillingCycle selects standard or annual-with-discount pricing.
type BillingCycle string

const (
	CycleStandard BillingCycle = "standard"
	CycleAnnual   BillingCycle = "annual"
)

// AnnualDiscount is the fraction charged for a year paid upfront.
const AnnualDiscount = 0.75

func Round2(n float64) float64 {
	return math.Round(n*100) / 100
}

// AnnualWithDiscount returns monthly × 12 × 0.75 rounded to cents.
func AnnualWithDiscount(monthly float64) float64 {
	return Round2(monthly * 12 * AnnualDiscount)
}

// Price returns the line title and unit price for the plan under cycle.
func (p Plan) Price(cycle BillingCycle) (string, float64) {
	if cycle == CycleAnnual && p.AnnualAllowed {
		return p.Name + " (Anual - 25% OFF)", AnnualWithDiscount(p.Monthly)
	}
	return p.Name, Round2(p.Monthly)
}

// CheckoutIntent is what the gateway needs to host a checkout.
type CheckoutIntent struct {
	ItemID          string
	Title           string
	UnitPrice       float64
	Currency        string
	CorrelationID   string
	NotificationURL string
	SuccessURL      string
	PendingURL      string
	FailureURL      string
}

// Checkout is the gateway's answer to a CheckoutIntent.
type Checkout struct {
	ID         string
	InitPoint  string
	SandboxURL string
}

// ErrNotAPayment is returned by gateways for ids that name something other
// than a payment (a charge, a refund, an event about a customer). Such
// notifications never change an account.
var ErrNotAPayment = errors.New("gateway object is not a payment")

// Payment is the authoritative payment state fetched from the gateway.
type Payment struct {
	ID            string
	Status        PaymentStatus
	CorrelationID string
	Amount        float64
	// ApprovedAt is when the gateway charged the payment.
	ApprovedAt    time.Time
}
