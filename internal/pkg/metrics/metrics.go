package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersTriggered counts reminders flipped to triggered, by source (write|poll|sweep).
	RemindersTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_reminders_triggered_total",
			Help: "Total number of reminders that fired",
		},
		[]string{"source"},
	)

	// NotificationsCreated counts in-app notifications by category.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"category"},
	)

	// EmailsDelivered counts outbox delivery attempts by result (sent|retry|failed).
	EmailsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_emails_total",
			Help: "Total number of email delivery attempts",
		},
		[]string{"result"},
	)

	// PermissionDenials counts forbidden outcomes by resource.
	PermissionDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_permission_denials_total",
			Help: "Total number of forbidden access attempts",
		},
		[]string{"resource"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskdesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
