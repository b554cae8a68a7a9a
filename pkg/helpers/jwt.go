package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	identityIssuer   = "cofre-digital-identity"
	identityAudience = "cofre-digital"
	sessionIssuer    = "cofre-digital-session"
)

var ErrTokenInvalid = errors.New("invalid token")

// JWTManager signs and verifies the two token kinds the service deals with:
// short-lived identity tokens handed to the browser after sign-in, and the
// long-lived session credentials stored in the session cookie.
type JWTManager struct {
	IdentitySecret []byte
	SessionSecret  []byte
	IDTokenTTL     time.Duration
	SessionTTL     time.Duration
	now            func() time.Time
}

func NewJWTManager(identitySecret, sessionSecret string, idTokenTTL, sessionTTL time.Duration) *JWTManager {
	return &JWTManager{
		IdentitySecret: []byte(identitySecret),
		SessionSecret:  []byte(sessionSecret),
		IDTokenTTL:     idTokenTTL,
		SessionTTL:     sessionTTL,
		now:            time.Now,
	}
}

type IdentityClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type SessionClaims struct {
	UserID   string `json:"uid"`
	AuthTime int64  `json:"auth_time"`

	// IssuedAtMs repeats iat at millisecond precision for revocation checks.
	IssuedAtMs int64 `json:"iat_ms,omitempty"`
	jwt.RegisteredClaims
}

// Issued returns when the credential was minted, at the best precision the
// token carries.
func (c *SessionClaims) Issued() time.Time {
	if c.IssuedAtMs > 0 {
		return time.UnixMilli(c.IssuedAtMs)
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// SetClock replaces the time source used for issuing and validating tokens.
func (m *JWTManager) SetClock(fn func() time.Time) { m.now = fn }

func (m *JWTManager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// GenerateIDToken issues an identity token for a freshly authenticated user.
func (m *JWTManager) GenerateIDToken(userID, email string) (string, time.Time, error) {
	now := m.clock()
	exp := now.Add(m.IDTokenTTL)
	claims := &IdentityClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    identityIssuer,
			Audience:  jwt.ClaimStrings{identityAudience},
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.IdentitySecret)
	return s, exp, err
}

// GenerateSessionToken mints a session credential for userID.
func (m *JWTManager) GenerateSessionToken(userID string, authTime time.Time) (string, time.Time, error) {
	now := m.clock()
	exp := now.Add(m.SessionTTL)
	claims := &SessionClaims{
		UserID:     userID,
		AuthTime:   authTime.Unix(),
		IssuedAtMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.SessionSecret)
	return s, exp, err
}

func (m *JWTManager) ParseIDToken(tokenStr string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	if err := m.parse(tokenStr, claims, m.IdentitySecret,
		jwt.WithIssuer(identityIssuer), jwt.WithAudience(identityAudience)); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *JWTManager) ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := m.parse(tokenStr, claims, m.SessionSecret, jwt.WithIssuer(sessionIssuer)); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *JWTManager) parse(tokenStr string, claims jwt.Claims, secret []byte, opts ...jwt.ParserOption) error {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock),
	)
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return ErrTokenInvalid
	}
	return nil
}
