// internal/wall/service.go
//
// Heart-creation and payment-confirmation pipeline.
//
// Context
// -------
// This is the sequence that turns a successful charge into a durable,
// shareable, deduplicated row:
//
//   1. CreateIntent  – validate the submission, mint a Stripe intent with
//      the fields as metadata.  Nothing is written locally.
//   2. (Stripe collects the payment in the browser.)
//   3. Confirm       – re-verify the charge with Stripe, read the fields
//      back out of the intent's metadata, insert exactly once keyed by the
//      intent id, then best-effort notify the recipient.
//
// Confirm is reached from two entry points, the client's synchronous
// callback and Stripe's asynchronous webhook, and the two race.  The
// repository's unique-violation handling makes the race safe; Confirm
// itself performs no deduplication.

package wall

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/theheartwall/heartwall/internal/cache"
	"github.com/theheartwall/heartwall/internal/heart"
	"github.com/theheartwall/heartwall/internal/mail"
	"github.com/theheartwall/heartwall/internal/metrics"
	"github.com/theheartwall/heartwall/internal/payment"
)

// HeartStore is the slice of the heart repository the service needs.
type HeartStore interface {
	Insert(ctx context.Context, in heart.Input, paymentRef string) (*heart.Record, bool, error)
	ByID(ctx context.Context, id string) (*heart.Record, error)
	ByPaymentRef(ctx context.Context, ref string) (*heart.Record, error)
	ListRecent(ctx context.Context, limit, offset int) ([]heart.Record, error)
	CountAll(ctx context.Context) (int64, error)
}

// Service wires the validator, the payment gateway, the store, and the
// notifier into the pipeline described above.
type Service struct {
	gateway  payment.Gateway
	store    HeartStore
	notifier mail.Notifier
	now      func() time.Time

	// Share links get hammered right after checkout.  Hearts never change
	// once written, so cached records cannot go stale.
	views *cache.LRU[string, *heart.Record]
}

// viewCacheSize covers a busy day of share traffic; evictions just fall
// back to the database.
const viewCacheSize = 4096

// New constructs a Service.  notifier may be nil when no email provider is
// configured; hearts still persist, notices are skipped.
func New(gateway payment.Gateway, store HeartStore, notifier mail.Notifier) *Service {
	return &Service{
		gateway:  gateway,
		store:    store,
		notifier: notifier,
		now:      time.Now,
		views:    cache.New[string, *heart.Record](viewCacheSize),
	}
}

// IntentResult is what the browser needs to run the payment element.
type IntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

// CreateIntent validates the raw submission and asks Stripe for an intent
// carrying the validated fields as metadata.  Validation failures come
// back as *heart.ValidationError with a user-facing reason; nothing is
// created upstream when validation fails.
func (s *Service) CreateIntent(ctx context.Context, rawName, rawCategory, rawMessage, rawDate, rawEmail string) (*IntentResult, error) {
	in, err := heart.ValidateInput(rawName, rawCategory, rawMessage, rawDate, rawEmail, s.now())
	if err != nil {
		return nil, err
	}

	meta := map[string]string{
		payment.MetaName:           in.Name,
		payment.MetaCategory:       string(in.Category),
		payment.MetaMessage:        in.Message,
		payment.MetaDate:           in.Date,
		payment.MetaRecipientEmail: in.RecipientEmail,
	}

	intent, err := s.gateway.CreateIntent(ctx, meta)
	if err != nil {
		return nil, err
	}

	metrics.IntentCreatedTotal.Inc()
	zap.S().Infow("payment intent created", "intent_id", intent.ID)

	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// Confirm verifies the charge with Stripe and persists the heart.  It is
// safe to call any number of times for the same intent id; every non-error
// call returns the same heart id.
func (s *Service) Confirm(ctx context.Context, intentID string) (*heart.Record, error) {
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if err := payment.VerifySucceeded(intent); err != nil {
		zap.S().Warnw("confirmation rejected", "intent_id", intentID, "reason", err)
		return nil, err
	}

	// The intent's metadata is the sole authoritative source of the
	// submission; it round-tripped through Stripe, not through the client.
	in := heart.Input{
		Name:           intent.Metadata[payment.MetaName],
		Category:       heart.Category(intent.Metadata[payment.MetaCategory]),
		Message:        intent.Metadata[payment.MetaMessage],
		Date:           intent.Metadata[payment.MetaDate],
		RecipientEmail: intent.Metadata[payment.MetaRecipientEmail],
	}

	rec, created, err := s.store.Insert(ctx, in, intent.ID)
	if err != nil {
		zap.S().Errorw("heart persistence failed",
			"intent_id", intentID, "err", err)
		return nil, err
	}

	if !created {
		metrics.DuplicateConfirmTotal.Inc()
		zap.S().Infow("confirmation replay, heart already saved",
			"intent_id", intentID, "heart_id", rec.ID)
		return rec, nil
	}

	metrics.HeartsCreatedTotal.Inc()
	zap.S().Infow("heart saved",
		"intent_id", intentID, "heart_id", rec.ID, "category", rec.Category)

	s.views.Add(rec.ID, rec)

	s.notify(ctx, in)
	return rec, nil
}

// notify sends the recipient notice when an address was supplied.  The
// heart is already durable, so a send failure is logged and counted but
// never propagated.
func (s *Service) notify(ctx context.Context, in heart.Input) {
	if in.RecipientEmail == "" || s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, mail.Notification{
		RecipientEmail: in.RecipientEmail,
		SenderName:     in.Name,
		Category:       string(in.Category),
		Message:        in.Message,
		Date:           in.Date,
	})
	if err != nil {
		metrics.NotifyFailuresTotal.Inc()
		zap.S().Errorw("recipient notification failed",
			"recipient", in.RecipientEmail, "err", err)
	}
}

// HeartByID fetches one heart for the share view, serving repeat lookups
// from the in-process cache.
func (s *Service) HeartByID(ctx context.Context, id string) (*heart.Record, error) {
	if rec, ok := s.views.Get(id); ok {
		return rec, nil
	}
	rec, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.views.Add(rec.ID, rec)
	return rec, nil
}

// HeartByPaymentRef resolves a heart from its payment-correlation token.
// The post-checkout redirect only carries the intent id.
func (s *Service) HeartByPaymentRef(ctx context.Context, ref string) (*heart.Record, error) {
	return s.store.ByPaymentRef(ctx, ref)
}

// Wall returns a page of hearts, newest first.
func (s *Service) Wall(ctx context.Context, limit, offset int) ([]heart.Record, error) {
	return s.store.ListRecent(ctx, limit, offset)
}

// Count returns the number of hearts on the wall.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountAll(ctx)
}
