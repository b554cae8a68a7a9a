// Package memory provides in-process repositories for local runs and tests.
// They honor the same contracts as the postgres driver, including per-user
// namespacing and serialized seeding.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/internal/domain/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*entity.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.TrialExpiresAt != nil {
		t := *u.TrialExpiresAt
		c.TrialExpiresAt = &t
	}
	if u.PaymentApprovedAt != nil {
		t := *u.PaymentApprovedAt
		c.PaymentApprovedAt = &t
	}
	return &c
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = cloneUser(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) GrantTrial(_ context.Context, id string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if u.Entitlement != entity.EntitlementNone {
		return false, nil
	}
	u.Entitlement = entity.EntitlementTrial
	u.TrialExpiresAt = &expiresAt
	u.UpdatedAt = r.now()
	return true, nil
}

func (r *UserRepository) ApplyPayment(_ context.Context, id string, rec entity.PaymentRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	prev := u.LastPaymentID
	approved := rec.ApprovedAt
	u.Entitlement = entity.EntitlementActive
	u.LastPaymentID = rec.PaymentID
	u.LastPaymentAmount = rec.Amount
	u.PaymentApprovedAt = &approved
	u.UpdatedAt = r.now()
	return prev, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
