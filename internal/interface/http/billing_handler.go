package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/pkg/response"
)

// maxWebhookBody bounds what is read from a gateway notification.
const maxWebhookBody = 64 << 10

type BillingHandler struct {
	Svc    *application.BillingService
	Logger *logrus.Logger
}

func NewBillingHandler(svc *application.BillingService, logger *logrus.Logger) *BillingHandler {
	return &BillingHandler{Svc: svc, Logger: logger}
}

type preferenceRequest struct {
	Plan string `json:"plan"`
	Type string `json:"type"`
	UID  string `json:"uid"`
}

// Preference handles POST /api/billing/preference. The correlation id is
// the session uid when a session is present, else the body uid.
func (h *BillingHandler) Preference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badPayload(c, err)
		return
	}
	corr := currentUID(c)
	if corr == "" {
		corr = req.UID
	}
	co, err := h.Svc.CreateIntent(c.Request.Context(), application.IntentInput{Plan: req.Plan, Cycle: req.Type, CorrelationID: corr})
	if err != nil {
		fail(c, h.Logger, "billing_intent", err)
		return
	}
	body := gin.H{"id": co.ID, "init_point": co.InitPoint}
	if co.SandboxURL != "" {
		body["sandbox_init_point"] = co.SandboxURL
	}
	response.OK(c, http.StatusOK, body)
}

// Webhook handles POST /api/billing/webhook. Anything but an infrastructure
// failure is acknowledged with 200 so the gateway stops redelivering.
func (h *BillingHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		body = nil
	}
	id := application.ExtractPaymentID(c.Request.URL.Query(), body)
	res, err := h.Svc.HandleNotification(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Logger, "billing_webhook", err)
		return
	}
	if res.Ignored {
		response.OK(c, http.StatusOK, gin.H{"ignored": true})
		return
	}
	out := gin.H{"status": res.Status}
	if res.UID != "" {
		out["uid"] = res.UID
	}
	if res.Warning != "" {
		out["warning"] = res.Warning
	}
	response.OK(c, http.StatusOK, out)
}
