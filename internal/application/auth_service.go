package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	repo "github.com/oksasatya/cofre-digital/internal/domain/repository"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
	"github.com/oksasatya/cofre-digital/pkg/mailer"
	"github.com/oksasatya/cofre-digital/pkg/telemetry"
)

// Revocations records per-user revocation instants. helpers.RevocationStore
// implements it on Redis.
type Revocations interface {
	Revoke(ctx context.Context, uid string, at time.Time) error
	RevokedAfter(ctx context.Context, uid string) (time.Time, error)
}

// EmailQueue is satisfied by mailer.Queue.
type EmailQueue interface {
	Enqueue(ctx context.Context, job mailer.EmailJob) error
}

type AuthService struct {
	Users       repo.UserRepository
	JWT         *helpers.JWTManager
	Revocations Revocations // optional
	Emails      EmailQueue  // optional
	Logger      *logrus.Logger
	TrialPeriod time.Duration
	AppName     string
	AppURL      string

	now func() time.Time
}

func NewAuthService(users repo.UserRepository, jwt *helpers.JWTManager, revocations Revocations, emails EmailQueue, logger *logrus.Logger, trial time.Duration, appName, appURL string) *AuthService {
	return &AuthService{
		Users:       users,
		JWT:         jwt,
		Revocations: revocations,
		Emails:      emails,
		Logger:      logger,
		TrialPeriod: trial,
		AppName:     appName,
		AppURL:      appURL,
		now:         time.Now,
	}
}

// Identity is what the identity endpoints hand back to the browser.
type Identity struct {
	UID       string `json:"uid"`
	IDToken   string `json:"idToken"`
	ExpiresIn int    `json:"expiresIn"`
}

// Session is a freshly minted session credential.
type Session struct {
	UID       string
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *AuthService) issueIdentity(u *entity.User) (*Identity, error) {
	tok, _, err := s.JWT.GenerateIDToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue id token: %w", err)
	}
	return &Identity{UID: u.ID, IDToken: tok, ExpiresIn: int(s.JWT.IDTokenTTL.Seconds())}, nil
}

// Register creates an account and returns an identity token for it.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Identity, error) {
	email = helpers.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || len(password) < helpers.MinPasswordLength {
		telemetry.AuthEvents.WithLabelValues("register", "invalid").Inc()
		return nil, ErrInvalidInput
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Email: email, Password: hash}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			telemetry.AuthEvents.WithLabelValues("register", "duplicate").Inc()
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrUpstream, err)
	}
	telemetry.AuthEvents.WithLabelValues("register", "ok").Inc()
	s.enqueue(ctx, mailer.WelcomeJob(u.Email, s.AppName, s.AppURL), u.ID)
	return s.issueIdentity(u)
}

// SignIn checks the password and returns an identity token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	u, err := s.Users.GetByEmail(ctx, helpers.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			telemetry.AuthEvents.WithLabelValues("sign_in", "fail").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: get user: %v", ErrUpstream, err)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		telemetry.AuthEvents.WithLabelValues("sign_in", "fail").Inc()
		return nil, ErrInvalidCredentials
	}
	telemetry.AuthEvents.WithLabelValues("sign_in", "ok").Inc()
	return s.issueIdentity(u)
}

// MintSession exchanges an identity token for a session credential. The
// first session of an account starts its trial.
func (s *AuthService) MintSession(ctx context.Context, idToken string) (*Session, error) {
	if idToken == "" {
		return nil, ErrMissingInput
	}
	claims, err := s.JWT.ParseIDToken(idToken)
	if err != nil {
		telemetry.AuthEvents.WithLabelValues("session_mint", "invalid").Inc()
		return nil, ErrInvalidToken
	}
	uid := claims.UserID
	if _, err := s.Users.GetByID(ctx, uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: get user: %v", ErrUpstream, err)
	}

	now := s.clock()
	granted, err := s.Users.GrantTrial(ctx, uid, now.Add(s.TrialPeriod))
	if err != nil {
		return nil, fmt.Errorf("%w: grant trial: %v", ErrUpstream, err)
	}
	if granted && s.Logger != nil {
		s.Logger.WithField("uid", uid).Info("trial started")
	}

	authTime := now
	if claims.IssuedAt != nil {
		authTime = claims.IssuedAt.Time
	}
	tok, exp, err := s.JWT.GenerateSessionToken(uid, authTime)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	telemetry.AuthEvents.WithLabelValues("session_mint", "ok").Inc()
	return &Session{UID: uid, Token: tok, ExpiresAt: exp}, nil
}

// VerifySession returns the uid of a valid session credential. Nothing is
// cached: signature, expiry and revocation are checked on every call.
func (s *AuthService) VerifySession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotAuthenticated
	}
	claims, err := s.JWT.ParseSessionToken(token)
	if err != nil {
		return "", ErrNotAuthenticated
	}
	if s.Revocations == nil {
		return claims.UserID, nil
	}
	after, err := s.Revocations.RevokedAfter(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: revocation lookup: %v", ErrUpstream, err)
	}
	if issued := claims.Issued(); !after.IsZero() && (issued.IsZero() || issued.Before(after)) {
		return "", ErrNotAuthenticated
	}
	return claims.UserID, nil
}

// Revoke invalidates every session credential issued to uid so far.
func (s *AuthService) Revoke(ctx context.Context, uid string) error {
	if s.Revocations == nil {
		return ErrMisconfigured
	}
	if err := s.Revocations.Revoke(ctx, uid, s.clock()); err != nil {
		return fmt.Errorf("%w: revoke: %v", ErrUpstream, err)
	}
	telemetry.AuthEvents.WithLabelValues("revoke", "ok").Inc()
	return nil
}

// Account loads the user behind a verified session.
func (s *AuthService) Account(ctx context.Context, uid string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user: %v", ErrUpstream, err)
	}
	return u, nil
}

// Now exposes the service clock so callers compute effective entitlements
// against the same instant.
func (s *AuthService) Now() time.Time { return s.clock() }

func (s *AuthService) enqueue(ctx context.Context, job mailer.EmailJob, uid string) {
	if s.Emails == nil {
		return
	}
	if err := s.Emails.Enqueue(ctx, job); err != nil {
		telemetry.EmailJobs.WithLabelValues(job.Template, "enqueue_failed").Inc()
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"uid": uid, "template": job.Template}).Warn("enqueue email failed")
		}
		return
	}
	telemetry.EmailJobs.WithLabelValues(job.Template, "enqueued").Inc()
}
