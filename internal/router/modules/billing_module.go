package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cofre-digital/internal/container"
	handlers "github.com/oksasatya/cofre-digital/internal/interface/http"
	"github.com/oksasatya/cofre-digital/internal/interface/middleware"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

// BillingModule wires checkout creation and the gateway webhook. The
// webhook is public: the gateway has no session.
type BillingModule struct {
	Handler  *handlers.BillingHandler
	Verifier middleware.SessionVerifier
	Cookies  *helpers.Manager
}

func NewBillingModule(h *handlers.BillingHandler, v middleware.SessionVerifier, cookies *helpers.Manager) *BillingModule {
	return &BillingModule{Handler: h, Verifier: v, Cookies: cookies}
}

func (m *BillingModule) Register(rg *gin.RouterGroup) {
	prefLimiter := middleware.RateLimit(container.GetRedis(), 20, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/billing/preference", prefLimiter, middleware.OptionalSession(m.Verifier, m.Cookies), m.Handler.Preference)
	rg.POST("/billing/webhook", m.Handler.Webhook)
}
