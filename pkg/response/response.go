package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every JSON body the API writes carries "ok". Successful bodies merge the
// handler's fields next to it; failures carry a short error code and,
// optionally, field-level details.

type ErrorBody struct {
	OK        bool              `json:"ok"`
	Error     string            `json:"error"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// OK writes {"ok": true, ...fields}.
func OK(ctx *gin.Context, status int, fields gin.H) {
	if status == 0 {
		status = http.StatusOK
	}
	body := gin.H{"ok": true}
	for k, v := range fields {
		if k == "ok" {
			continue
		}
		body[k] = v
	}
	ctx.JSON(status, body)
}

// Error writes {"ok": false, "error": code} and aborts the chain.
func Error(ctx *gin.Context, status int, code string, details map[string]string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.AbortWithStatusJSON(status, ErrorBody{
		OK:        false,
		Error:     code,
		RequestID: ctx.GetString("request_id"),
		Details:   details,
	})
}
