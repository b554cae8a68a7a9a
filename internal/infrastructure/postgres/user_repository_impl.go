package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/internal/domain/repository"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

type UserRepository struct {
	db DB
	dl helpers.Deadline
}

func NewUserRepository(db DB, dl helpers.Deadline) *UserRepository {
	return &UserRepository{db: db, dl: dl}
}

const userColumns = `id, email, password_hash, entitlement, trial_expires_at,
	last_payment_id, last_payment_amount, payment_approved_at, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u           entity.User
		entitlement *string
		paymentID   *string
		amount      *float64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &entitlement, &u.TrialExpiresAt,
		&paymentID, &amount, &u.PaymentApprovedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	if entitlement != nil {
		u.Entitlement = entity.Entitlement(*entitlement)
	}
	if paymentID != nil {
		u.LastPaymentID = *paymentID
	}
	if amount != nil {
		u.LastPaymentAmount = *amount
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password)
	return mapErr(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if invalidUUID(id) {
		return nil, repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GrantTrial only touches rows whose entitlement was never set, so a second
// sign-in cannot restart an expired trial.
func (r *UserRepository) GrantTrial(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	if invalidUUID(id) {
		return false, repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET entitlement = 'trial', trial_expires_at = $2, updated_at = now()
		WHERE id = $1 AND entitlement IS NULL
	`, id, expiresAt)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyPayment overwrites every payment field in one statement and returns
// the payment id stored before it.
func (r *UserRepository) ApplyPayment(ctx context.Context, id string, rec entity.PaymentRecord) (string, error) {
	if invalidUUID(id) {
		return "", repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	var prev *string
	err := r.db.QueryRow(ctx, `
		UPDATE users u
		SET entitlement = 'active',
		    last_payment_id = $2,
		    last_payment_amount = $3,
		    payment_approved_at = $4,
		    updated_at = now()
		FROM (SELECT id, last_payment_id FROM users WHERE id = $1 FOR UPDATE) old
		WHERE u.id = old.id
		RETURNING old.last_payment_id
	`, id, rec.PaymentID, rec.Amount, rec.ApprovedAt).Scan(&prev)
	if err != nil {
		return "", mapErr(err)
	}
	if prev == nil {
		return "", nil
	}
	return *prev, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
