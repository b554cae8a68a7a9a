package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GrantTrial sets a trial entitlement only when the user has none yet.
	// It reports whether anything changed.
	GrantTrial(ctx context.Context, id string, expiresAt time.Time) (bool, error)
	// ApplyPayment overwrites the entitlement fields with an approved
	// payment and returns the payment id that was stored before.
	ApplyPayment(ctx context.Context, id string, rec entity.PaymentRecord) (string, error)
}
