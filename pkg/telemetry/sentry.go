package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// InitSentry initializes the Sentry SDK. An empty dsn leaves Sentry disabled
// and every capture call becomes a no-op.
func InitSentry(dsn, serviceName, env, release string) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		TracesSampleRate: 0.2,
		AttachStacktrace: true,
		Tags: map[string]string{
			"service": serviceName,
		},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return scrubPII(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	return nil
}

// CaptureError sends err to Sentry with the given tags.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events. Call with defer in main.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// Recovery catches panics, reports them with the request attached and
// answers 500 with the API's error shape.
func Recovery(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(c.Request)
				hub.Scope().SetTag("service", serviceName)
				hub.Scope().SetTag("panic", "true")
				if rid := c.GetString("request_id"); rid != "" {
					hub.Scope().SetTag("request_id", rid)
				}

				var err error
				switch v := rec.(type) {
				case error:
					err = v
				default:
					err = fmt.Errorf("panic: %v", v)
				}
				if errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				hub.CaptureException(err)
				hub.Flush(2 * time.Second)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal-error"})
			}
		}()
		c.Next()
	}
}

// scrubPII strips user emails, IPs and credential headers before events leave
// the process. Session cookies carry credentials, so Cookie is always dropped.
func scrubPII(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	if event.User.Email != "" {
		event.User.Email = "[redacted]"
	}
	event.User.IPAddress = ""
	if event.Request != nil {
		event.Request.Cookies = ""
		for k := range event.Request.Headers {
			switch http.CanonicalHeaderKey(k) {
			case "Authorization", "Cookie", "Set-Cookie", "Stripe-Signature":
				event.Request.Headers[k] = "[redacted]"
			}
		}
	}
	return event
}
