package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
	"github.com/oksasatya/cofre-digital/pkg/response"
	"github.com/oksasatya/cofre-digital/pkg/telemetry"
)

const CtxUserIDKey = "userID"

// SessionVerifier is satisfied by application.AuthService.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (string, error)
}

// RequireSession verifies the session cookie on every request and injects
// the user id into the context. Requests without a valid session get 401;
// a failed revocation lookup is logged, reported and answered with 500.
func RequireSession(v SessionVerifier, cookies *helpers.Manager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := v.VerifySession(c.Request.Context(), cookies.Read(c))
		if err != nil {
			if errors.Is(err, application.ErrNotAuthenticated) {
				response.Error(c, http.StatusUnauthorized, "not-authenticated", nil)
				return
			}
			_ = c.Error(err)
			if logger != nil {
				logger.WithError(err).WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"op":         "session.verify",
				}).Error("request failed")
			}
			telemetry.CaptureError(err, map[string]string{
				"operation":  "session.verify",
				"request_id": c.GetString("request_id"),
			})
			response.Error(c, http.StatusInternalServerError, "upstream-failure", nil)
			return
		}
		c.Set(CtxUserIDKey, uid)
		c.Next()
	}
}

// OptionalSession injects the user id when a valid session is present and
// lets the request through either way.
func OptionalSession(v SessionVerifier, cookies *helpers.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := cookies.Read(c); tok != "" {
			if uid, err := v.VerifySession(c.Request.Context(), tok); err == nil {
				c.Set(CtxUserIDKey, uid)
			}
		}
		c.Next()
	}
}

// PageGuard redirects page requests under any of prefixes to loginPath
// unless they carry a valid session. Other paths pass untouched.
func PageGuard(v SessionVerifier, cookies *helpers.Manager, prefixes []string, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !guarded(c.Request.URL.Path, prefixes) {
			c.Next()
			return
		}
		uid, err := v.VerifySession(c.Request.Context(), cookies.Read(c))
		if err != nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Set(CtxUserIDKey, uid)
		c.Next()
	}
}

func guarded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
