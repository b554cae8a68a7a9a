package entity

import (
	"time"
)

// Entitlement is the billing state gating feature access.
type Entitlement string

const (
	EntitlementNone    Entitlement = ""
	EntitlementTrial   Entitlement = "trial"
	EntitlementActive  Entitlement = "active"
	EntitlementExpired Entitlement = "expired"
)

// User is the aggregate root for the account domain
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID          string
	Email       string
	Password    string
	Entitlement Entitlement

	TrialExpiresAt *time.Time

	LastPaymentID     string
	LastPaymentAmount float64
	PaymentApprovedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveEntitlement reports the entitlement as of now. A trial whose
// expiry has passed reads as expired; the stored value is left untouched.
func (u *User) EffectiveEntitlement(now time.Time) Entitlement {
	if u.Entitlement == EntitlementTrial && u.TrialExpiresAt != nil && now.After(*u.TrialExpiresAt) {
		return EntitlementExpired
	}
	return u.Entitlement
}

// PaymentRecord is the entitlement overwrite applied when a payment is approved.
type PaymentRecord struct {
	PaymentID  string
	Amount     float64
	ApprovedAt time.Time
}
