package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StepViews counts funnel events by step number.
	StepViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_step_views_total",
			Help: "Funnel step transitions recorded, by step",
		},
		[]string{"step"},
	)

	// Rejections counts visitors who declined private-pay care.
	Rejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_rejections_total",
			Help: "Visitors diverted to the rejection view",
		},
	)

	// Submissions counts lead submissions by result (stored, duplicate, store_error).
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_lead_submissions_total",
			Help: "Lead submissions by result",
		},
		[]string{"result"},
	)

	// WebhookDeliveries counts webhook notifications by result (ok, error).
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_webhook_deliveries_total",
			Help: "Webhook notifications by result",
		},
		[]string{"result"},
	)

	// Notifications counts outbound Twilio messages by kind and result.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_notifications_total",
			Help: "Outbound Twilio messages by kind and result",
		},
		[]string{"kind", "result"},
	)

	// RequestDuration tracks HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
