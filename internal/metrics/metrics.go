package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwave_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskwave_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Focus session metrics
	FocusSessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskwave_focus_sessions_started_total",
			Help: "Total number of focus sessions started",
		},
	)

	FocusSessionsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskwave_focus_sessions_completed_total",
			Help: "Total number of focus sessions completed successfully",
		},
	)

	// OTP metrics
	OTPSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskwave_otp_sent_total",
			Help: "Total number of OTP codes issued",
		},
	)

	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskwave_otp_verifications_total",
			Help: "Total number of OTP verification attempts by result",
		},
		[]string{"result"}, // "success", "expired", "invalid"
	)

	EmailFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskwave_email_failures_total",
			Help: "Total number of failed outbound emails",
		},
	)
)
