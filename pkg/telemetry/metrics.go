// Package telemetry holds the Prometheus collectors and Sentry plumbing
// shared by the API server and the email worker.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPRequests counts HTTP requests by method, route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cofre_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "cofre_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// AuthEvents counts register, sign-in, session and revocation outcomes.
var AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cofre_auth_events_total",
	Help: "Auth events by type.",
}, []string{"event", "result"})

// BillingEvents counts intent creation and webhook outcomes.
var BillingEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cofre_billing_events_total",
	Help: "Billing lifecycle events.",
}, []string{"event"})

// EmailJobs counts email jobs by template and outcome (enqueued, sent, failed).
var EmailJobs = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cofre_email_jobs_total",
	Help: "Email jobs by template and outcome.",
}, []string{"template", "outcome"})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request counts and latency. Routes are labelled with
// the registered pattern (e.g. /api/folders/:folderId/items) so ids never
// become label values.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
