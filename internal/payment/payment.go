// internal/payment/payment.go
//
// Payment-processor boundary types.
//
// Context
// -------
// The client's browser is never trusted to report payment success.  The
// validated form fields ride to Stripe as metadata on the payment intent,
// and the confirmation path reads them back out of the intent after Stripe
// itself reports the charge succeeded.  Intent is the only carrier of the
// submission between creation and confirmation; nothing is written locally
// before the charge is verified.

package payment

import (
	"context"
	"errors"
)

// Intent is the processor-side charge object, reduced to the fields the
// confirmation pipeline needs.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Metadata     map[string]string
}

// StatusSucceeded is the only intent status that permits persistence.
const StatusSucceeded = "succeeded"

// Metadata keys attached to every intent at creation time.
const (
	MetaName           = "name"
	MetaCategory       = "category"
	MetaMessage        = "message"
	MetaDate           = "date"
	MetaRecipientEmail = "recipientEmail"
)

var (
	// ErrUpstream marks a request the processor rejected.  Creation is not
	// retried automatically; retrying would mint a fresh intent, so there
	// is no dedup concern, but the caller decides.
	ErrUpstream = errors.New("payment processor request failed")

	// ErrPaymentNotCompleted blocks persistence when the charge has not
	// actually succeeded.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrCorruptedMetadata is defensive: an intent we created always
	// carries name and category, so their absence means the intent did not
	// come from us or was tampered with upstream.
	ErrCorruptedMetadata = errors.New("payment metadata missing required fields")
)

// Gateway abstracts intent creation and retrieval so the service layer and
// its tests never touch the Stripe SDK directly.
type Gateway interface {
	// CreateIntent asks the processor for a fixed-amount charge intent
	// carrying meta, and returns it with a client secret for the browser's
	// payment element.
	CreateIntent(ctx context.Context, meta map[string]string) (*Intent, error)

	// RetrieveIntent fetches the authoritative state of an intent by id.
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

// VerifySucceeded gates persistence on the processor's own verdict.  It
// returns ErrPaymentNotCompleted unless the intent status is succeeded,
// and ErrCorruptedMetadata when the required fields are absent.
func VerifySucceeded(in *Intent) error {
	if in.Status != StatusSucceeded {
		return ErrPaymentNotCompleted
	}
	if in.Metadata[MetaName] == "" || in.Metadata[MetaCategory] == "" {
		return ErrCorruptedMetadata
	}
	return nil
}
