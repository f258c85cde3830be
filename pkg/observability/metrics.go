// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring warden.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Auth decision labels.
const (
	DecisionExempt     = "exempt"
	DecisionChallenged = "challenged"
	DecisionDenied     = "denied"
	DecisionAttached   = "attached"
)

// Session lookup labels.
const (
	LookupHit     = "hit"
	LookupMiss    = "miss"
	LookupExpired = "expired"
	LookupError   = "error"
)

var (
	// RequestsTotal counts HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// InflightRequests tracks requests currently being served.
	InflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "warden_http_inflight_requests",
			Help: "In-flight HTTP requests",
		},
	)

	// AuthDecisionsTotal counts gate outcomes.
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_auth_decisions_total",
			Help: "Authentication gate decisions",
		},
		[]string{"decision"},
	)

	// SessionsCreatedTotal counts sessions created per strategy kind.
	SessionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_sessions_created_total",
			Help: "Sessions created",
		},
		[]string{"strategy"},
	)

	// SessionsDestroyedTotal counts sessions destroyed per strategy kind.
	SessionsDestroyedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_sessions_destroyed_total",
			Help: "Sessions destroyed",
		},
		[]string{"strategy"},
	)

	// SessionLookupsTotal counts session id resolutions by result.
	SessionLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_session_lookups_total",
			Help: "Session lookups",
		},
		[]string{"strategy", "result"},
	)

	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_login_attempts_total",
			Help: "Login attempts",
		},
		[]string{"result"},
	)

	// StorageErrorsTotal counts failed record-store operations.
	StorageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_storage_errors_total",
			Help: "Record store errors",
		},
		[]string{"kind", "op"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InflightRequests,
		AuthDecisionsTotal,
		SessionsCreatedTotal,
		SessionsDestroyedTotal,
		SessionLookupsTotal,
		LoginAttemptsTotal,
		StorageErrorsTotal,
	)
}
