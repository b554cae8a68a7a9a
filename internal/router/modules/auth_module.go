package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cofre-digital/internal/container"
	handlers "github.com/oksasatya/cofre-digital/internal/interface/http"
	"github.com/oksasatya/cofre-digital/internal/interface/middleware"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

// AuthModule wires identity, session and account routes.
// Public: POST /auth/register, POST /auth/sign-in, POST|GET|DELETE /session
// Protected: POST /session/revoke, GET /account
type AuthModule struct {
	Handler  *handlers.AuthHandler
	Verifier middleware.SessionVerifier
	Cookies  *helpers.Manager
}

func NewAuthModule(h *handlers.AuthHandler, v middleware.SessionVerifier, cookies *helpers.Manager) *AuthModule {
	return &AuthModule{Handler: h, Verifier: v, Cookies: cookies}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public with rate limiting
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	signInLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	sessionLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/sign-in", signInLimiter, m.Handler.SignIn)
	rg.POST("/session", sessionLimiter, m.Handler.CreateSession)
	rg.GET("/session", m.Handler.SessionStatus)
	rg.DELETE("/session", m.Handler.DeleteSession)

	auth := rg.Group("/")
	auth.Use(middleware.RequireSession(m.Verifier, m.Cookies, container.GetLogger()))
	{
		auth.POST("/session/revoke", m.Handler.Revoke)
		auth.GET("/account", m.Handler.Account)
	}
}
