// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in cmd/api is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HeartsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hearts_created_total",
			Help: "Cumulative number of hearts persisted after a verified payment.",
		})

	DuplicateConfirmTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_confirm_total",
			Help: "Confirmation calls that found the heart already persisted.",
		})

	IntentCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_intents_created_total",
			Help: "Cumulative number of payment intents created.",
		})

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Stripe webhook deliveries by outcome.",
		},
		[]string{"outcome"}, // processed, invalid_signature, ignored, error
	)

	NotifyFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Recipient notification sends that failed after a heart was saved.",
		})
)

func init() {
	prometheus.MustRegister(
		HeartsCreatedTotal,
		DuplicateConfirmTotal,
		IntentCreatedTotal,
		WebhookEventsTotal,
		NotifyFailuresTotal,
	)
}
