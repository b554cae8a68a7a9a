package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
	"github.com/oksasatya/cofre-digital/pkg/response"
)

// AuthHandler serves the identity endpoints, the session cookie lifecycle
// and the account view.
type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookies *helpers.Manager) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionRequest struct {
	IDToken string `json:"idToken"`
}

func identityBody(id *application.Identity) gin.H {
	return gin.H{"uid": id.UID, "idToken": id.IDToken, "expiresIn": id.ExpiresIn}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	id, err := h.Svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.Logger, "register", err)
		return
	}
	response.OK(c, http.StatusOK, identityBody(id))
}

// SignIn handles POST /api/auth/sign-in.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	id, err := h.Svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.Logger, "sign_in", err)
		return
	}
	response.OK(c, http.StatusOK, identityBody(id))
}

// CreateSession handles POST /api/session: identity token in, cookie out.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badPayload(c, err)
		return
	}
	sess, err := h.Svc.MintSession(c.Request.Context(), req.IDToken)
	if err != nil {
		fail(c, h.Logger, "session_mint", err)
		return
	}
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	response.OK(c, http.StatusOK, gin.H{"uid": sess.UID})
}

// SessionStatus handles GET /api/session.
func (h *AuthHandler) SessionStatus(c *gin.Context) {
	uid, err := h.Svc.VerifySession(c.Request.Context(), h.Cookies.Read(c))
	if err != nil {
		response.OK(c, http.StatusOK, gin.H{"authenticated": false})
		return
	}
	response.OK(c, http.StatusOK, gin.H{"authenticated": true, "uid": uid})
}

// DeleteSession handles DELETE /api/session. The credential itself stays
// valid until expiry; Revoke is the way to kill it everywhere.
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	h.Cookies.Clear(c)
	response.OK(c, http.StatusOK, nil)
}

// Revoke handles POST /api/session/revoke.
func (h *AuthHandler) Revoke(c *gin.Context) {
	if err := h.Svc.Revoke(c.Request.Context(), currentUID(c)); err != nil {
		fail(c, h.Logger, "session_revoke", err)
		return
	}
	h.Cookies.Clear(c)
	response.OK(c, http.StatusOK, gin.H{"revoked": true})
}

// Account handles GET /api/account.
func (h *AuthHandler) Account(c *gin.Context) {
	u, err := h.Svc.Account(c.Request.Context(), currentUID(c))
	if err != nil {
		fail(c, h.Logger, "account", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": gin.H{
		"id":                u.ID,
		"email":             u.Email,
		"entitlement":       u.EffectiveEntitlement(h.Svc.Now()),
		"trialExpiresAt":    u.TrialExpiresAt,
		"lastPaymentId":     u.LastPaymentID,
		"lastPaymentAmount": u.LastPaymentAmount,
		"paymentApprovedAt": u.PaymentApprovedAt,
	}})
}
