package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/internal/interface/middleware"
	"github.com/oksasatya/cofre-digital/pkg/response"
	"github.com/oksasatya/cofre-digital/pkg/telemetry"
	"github.com/oksasatya/cofre-digital/pkg/validation"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorTable = []errorMapping{
	{application.ErrNotAuthenticated, http.StatusUnauthorized, "not-authenticated"},
	{application.ErrMissingInput, http.StatusBadRequest, "missing-input"},
	{application.ErrInvalidInput, http.StatusBadRequest, "invalid-input"},
	{application.ErrInvalidToken, http.StatusUnauthorized, "invalid-token"},
	{application.ErrInvalidCredentials, http.StatusUnauthorized, "invalid-credentials"},
	{application.ErrEmailTaken, http.StatusConflict, "email-already-in-use"},
	{application.ErrNotFound, http.StatusNotFound, "not-found"},
	{application.ErrInvalidPlan, http.StatusBadRequest, "invalid-plan"},
	{application.ErrMissingCorrelationID, http.StatusBadRequest, "missing-uid"},
	{application.ErrMisconfigured, http.StatusInternalServerError, "misconfigured-endpoint"},
}

// fail is the one place service errors become HTTP responses. Anything not
// in errorTable is an upstream failure: it is logged with full detail,
// reported to Sentry, and answered with a generic message.
func fail(c *gin.Context, logger *logrus.Logger, op string, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				logFailure(c, logger, op, err)
			}
			response.Error(c, m.status, m.code, nil)
			return
		}
	}
	logFailure(c, logger, op, err)
	telemetry.CaptureError(err, map[string]string{
		"operation":  op,
		"request_id": c.GetString("request_id"),
	})
	response.Error(c, http.StatusInternalServerError, "upstream-failure", nil)
}

func logFailure(c *gin.Context, logger *logrus.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"uid":        c.GetString(middleware.CtxUserIDKey),
		"op":         op,
	}).Error("request failed")
}

// badPayload answers binding errors: missing required fields are
// missing-input, anything else invalid-input.
func badPayload(c *gin.Context, err error) {
	code := "invalid-input"
	if validation.MissingOnly(err) {
		code = "missing-input"
	}
	response.Error(c, http.StatusBadRequest, code, validation.ToDetails(err))
}

func currentUID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}
