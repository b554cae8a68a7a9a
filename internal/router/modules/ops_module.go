package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cofre-digital/internal/container"
	handlers "github.com/oksasatya/cofre-digital/internal/interface/http"
	"github.com/oksasatya/cofre-digital/internal/interface/middleware"
	"github.com/oksasatya/cofre-digital/pkg/telemetry"
)

// OpsModule serves /healthz and, when enabled, Prometheus metrics for
// private networks only. It is mounted at the root, outside /api.
type OpsModule struct {
	Health  *handlers.HealthHandler
	Metrics bool
}

func NewOpsModule(h *handlers.HealthHandler, metrics bool) *OpsModule {
	return &OpsModule{Health: h, Metrics: metrics}
}

func (m *OpsModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/healthz", rl, m.Health.Healthz)
	if m.Metrics {
		rg.GET("/metrics", middleware.OnlyAllowed(middleware.AllowPrivateIP()), gin.WrapH(telemetry.Handler()))
	}
}
