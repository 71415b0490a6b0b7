// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusReused  = "reused"
)

var (
	// TokensIssuedTotal counts minted tokens by kind.
	TokensIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessionkeeper_tokens_issued_total",
		Help: "The total number of issued tokens by kind",
	}, []string{"kind"})

	// RefreshRotationsTotal counts rotation outcomes.
	RefreshRotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessionkeeper_refresh_rotations_total",
		Help: "The total number of refresh token rotations by status",
	}, []string{"status"})

	// AuthFailuresTotal counts refused credentials by reason.
	AuthFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessionkeeper_auth_failures_total",
		Help: "The total number of rejected tokens and headers by reason",
	}, []string{"reason"})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessionkeeper_login_attempts_total",
		Help: "The total number of login attempts by status",
	}, []string{"status"})

	SignupAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessionkeeper_signup_attempts_total",
		Help: "The total number of signup attempts by status",
	}, []string{"status"})

	// RequestDuration observes HTTP handling time by route and status code.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sessionkeeper_http_request_duration_seconds",
		Help:    "The HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "code"})
)
