package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelRoute    = "route"
	LabelDecision = "decision"
	LabelStatus   = "status"
	LabelMethod   = "method"
	LabelOutcome  = "outcome"
	LabelEvent    = "event"
)

var (
	// RequestsTotal counts all HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankgate_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelRoute, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bankgate_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// LoginTotal counts login attempts by outcome
	LoginTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankgate_login_total",
			Help: "Total number of login attempts",
		},
		[]string{LabelOutcome},
	)

	// DecisionTotal counts policy decisions by route and decision
	DecisionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankgate_policy_decisions_total",
			Help: "Total number of access policy decisions",
		},
		[]string{LabelRoute, LabelDecision},
	)

	// SessionEventsTotal counts session lifecycle events
	SessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankgate_session_events_total",
			Help: "Total number of session lifecycle events",
		},
		[]string{LabelEvent},
	)

	// ActiveSessions is the number of live sessions held by the carrier
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bankgate_active_sessions",
			Help: "Number of sessions currently held in memory",
		},
	)
)

// Session lifecycle event names
const (
	SessionCreated   = "created"
	SessionDestroyed = "destroyed"
	SessionEvicted   = "evicted"
)

// Collector provides methods for recording metrics. A nil Collector records nothing.
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request. Route is the registered
// route name (or "unmatched") so label cardinality stays bounded.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	RequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLogin records a login attempt outcome
func (c *Collector) RecordLogin(outcome string) {
	if c == nil {
		return
	}
	LoginTotal.WithLabelValues(outcome).Inc()
}

// RecordDecision records a policy decision
func (c *Collector) RecordDecision(route, decision string) {
	if c == nil {
		return
	}
	DecisionTotal.WithLabelValues(route, decision).Inc()
}

// RecordSession records a session lifecycle event. Created raises the live
// count and every other event lowers it, so concurrent events commute.
func (c *Collector) RecordSession(event string) {
	if c == nil {
		return
	}
	SessionEventsTotal.WithLabelValues(event).Inc()
	if event == SessionCreated {
		ActiveSessions.Inc()
	} else {
		ActiveSessions.Dec()
	}
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
