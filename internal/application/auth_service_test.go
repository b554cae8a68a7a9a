package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/internal/infrastructure/memory"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
	"github.com/oksasatya/cofre-digital/pkg/mailer"
)

type authFixture struct {
	svc    *AuthService
	users  *memory.UserRepository
	revs   *memRevocations
	emails *recordingQueue
	now    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  memory.NewUserRepository(),
		revs:   &memRevocations{},
		emails: &recordingQueue{},
		now:    time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC),
	}
	jwt := helpers.NewJWTManager("id-secret", "session-secret", time.Hour, 7*24*time.Hour)
	jwt.SetClock(func() time.Time { return f.now })
	f.svc = NewAuthService(f.users, jwt, f.revs, f.emails, nil, 7*24*time.Hour, "Cofre Digital", "https://cofre.example")
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *authFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *authFixture) signedInSession(t *testing.T, email string) *Session {
	t.Helper()
	id, err := f.svc.Register(context.Background(), email, "secret1")
	require.NoError(t, err)
	sess, err := f.svc.MintSession(context.Background(), id.IDToken)
	require.NoError(t, err)
	return sess
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	id, err := f.svc.Register(ctx, "  Ana@Example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, id.UID)
	assert.NotEmpty(t, id.IDToken)
	assert.Equal(t, 3600, id.ExpiresIn)
	assert.Equal(t, []string{mailer.TemplateWelcome}, f.emails.templates())

	_, err = f.svc.Register(ctx, "ana@example.com", "another1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Register(ctx, "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Register(ctx, "bia@example.com", "12345")
	assert.ErrorIs(t, err, ErrInvalidInput)

	stored, err := f.users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.Equal(t, entity.EntitlementNone, stored.Entitlement)
}

func TestSignIn(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	id, err := f.svc.SignIn(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.UID, id.UID)

	_, err = f.svc.SignIn(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMintSession_Errors(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.MintSession(ctx, "")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = f.svc.MintSession(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A well-signed token for an account that does not exist.
	tok, _, err := f.svc.JWT.GenerateIDToken("2b1c1a7e-0000-4000-8000-000000000000", "ghost@example.com")
	require.NoError(t, err)
	_, err = f.svc.MintSession(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expired identity token.
	id, err := f.svc.Register(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	f.advance(2 * time.Hour)
	_, err = f.svc.MintSession(ctx, id.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintSession_GrantsTrialOnce(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	start := f.now

	sess := f.signedInSession(t, "ana@example.com")
	assert.Equal(t, start.Add(7*24*time.Hour), sess.ExpiresAt)

	u, err := f.svc.Account(ctx, sess.UID)
	require.NoError(t, err)
	assert.Equal(t, entity.EntitlementTrial, u.Entitlement)
	require.NotNil(t, u.TrialExpiresAt)
	assert.Equal(t, start.Add(7*24*time.Hour), *u.TrialExpiresAt)

	// A later sign-in must not extend the trial.
	f.advance(48 * time.Hour)
	id, err := f.svc.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	_, err = f.svc.MintSession(ctx, id.IDToken)
	require.NoError(t, err)
	u, err = f.svc.Account(ctx, sess.UID)
	require.NoError(t, err)
	assert.Equal(t, start.Add(7*24*time.Hour), *u.TrialExpiresAt)

	f.advance(6 * 24 * time.Hour)
	assert.Equal(t, entity.EntitlementExpired, u.EffectiveEntitlement(f.svc.Now()))
}

func TestVerifySession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	sess := f.signedInSession(t, "ana@example.com")

	uid, err := f.svc.VerifySession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UID, uid)

	_, err = f.svc.VerifySession(ctx, "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = f.svc.VerifySession(ctx, sess.Token+"x")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	f.advance(7*24*time.Hour + time.Second)
	_, err = f.svc.VerifySession(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRevoke_InvalidatesOlderCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	old := f.signedInSession(t, "ana@example.com")
	other := f.signedInSession(t, "bia@example.com")

	f.advance(10 * time.Second)
	require.NoError(t, f.svc.Revoke(ctx, old.UID))

	_, err := f.svc.VerifySession(ctx, old.Token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	uid, err := f.svc.VerifySession(ctx, other.Token)
	require.NoError(t, err, "revocation is per user")
	assert.Equal(t, other.UID, uid)

	f.advance(10 * time.Second)
	id, err := f.svc.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	fresh, err := f.svc.MintSession(ctx, id.IDToken)
	require.NoError(t, err)
	_, err = f.svc.VerifySession(ctx, fresh.Token)
	assert.NoError(t, err, "credentials minted after the revocation stay valid")
}

func TestRevoke_SameSecondIsStrict(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.advance(100 * time.Millisecond)
	sess := f.signedInSession(t, "ana@example.com")

	f.advance(300 * time.Millisecond)
	require.NoError(t, f.svc.Revoke(ctx, sess.UID))
	_, err := f.svc.VerifySession(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNotAuthenticated, "minted earlier within the same second")

	f.advance(200 * time.Millisecond)
	id, err := f.svc.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	fresh, err := f.svc.MintSession(ctx, id.IDToken)
	require.NoError(t, err)
	_, err = f.svc.VerifySession(ctx, fresh.Token)
	assert.NoError(t, err, "minted later within the same second")
}

func TestVerifySession_RevocationLookupFailsClosed(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.signedInSession(t, "ana@example.com")
	f.revs.err = errors.New("redis down")

	_, err := f.svc.VerifySession(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestRevoke_WithoutStore(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.Revocations = nil
	sess := f.signedInSession(t, "ana@example.com")

	assert.ErrorIs(t, f.svc.Revoke(context.Background(), sess.UID), ErrMisconfigured)
	_, err := f.svc.VerifySession(context.Background(), sess.Token)
	assert.NoError(t, err)
}

func TestAccount_NotFound(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Account(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
