// internal/api/webhook.go
//
// Stripe webhook entry point.
//
// Context
// -------
// Stripe's server-to-server delivery is the durable source of truth for
// payment success; the browser may navigate away before the synchronous
// confirm call lands.  Signature verification over the raw body is the
// authentication mechanism for this endpoint, and it MUST happen before
// any database work: an unauthenticated caller must never be able to
// fabricate a "payment succeeded" event.
//
// Delivery is at-least-once.  The repository's unique-violation handling
// makes replays safe, so a duplicate event is acknowledged with 2xx like
// any other success (a non-2xx would make Stripe retry forever).

package api

import (
	"encoding/json"
	"io"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/theheartwall/heartwall/internal/metrics"
)

// Stripe sends small events; anything past this is hostile.
const webhookBodyLimit = 1 << 20 // 1 MiB

// stripeWebhook verifies and processes one event delivery.
func (s *Server) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body.")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		r.Header.Get("Stripe-Signature"),
		s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		// Missing and malformed signatures are the same failure on
		// purpose; nothing was verified, nothing is distinguished.
		metrics.WebhookEventsTotal.WithLabelValues("invalid_signature").Inc()
		zap.S().Warnw("webhook signature rejected", "err", err)
		writeError(w, http.StatusBadRequest, "Invalid signature.")
		return
	}

	if event.Type != "payment_intent.succeeded" {
		metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		zap.S().Errorw("webhook payload unmarshal failed",
			"event_id", event.ID, "err", err)
		writeError(w, http.StatusBadRequest, "Malformed event payload.")
		return
	}

	// Same pipeline as the synchronous path: re-verify with Stripe,
	// insert-or-return-existing, best-effort notify.
	rec, err := s.wall.Confirm(r.Context(), pi.ID)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		zap.S().Errorw("webhook confirmation failed",
			"event_id", event.ID, "intent_id", pi.ID, "err", err)
		// Non-2xx so Stripe redelivers; the insert is idempotent.
		writeError(w, http.StatusInternalServerError, genericFailure)
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues("processed").Inc()
	zap.S().Infow("webhook processed",
		"event_id", event.ID, "intent_id", pi.ID, "heart_id", rec.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
