// internal/payment/stripe.go
//
// Stripe implementation of the Gateway interface.
//
// Notes
// -----
// • One StripeGateway per process; the v82 SDK key is package-global, so
//   the constructor sets it once during boot.
// • Stripe error messages are logged but never propagated verbatim to the
//   client; the API layer maps ErrUpstream to a generic retry prompt.

package payment

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"go.uber.org/zap"
)

// StripeGateway creates and retrieves payment intents for a fixed amount
// and currency (one heart costs the same for everyone).
type StripeGateway struct {
	amount   int64  // minor units, e.g. 100 for EUR 1.00
	currency string // ISO 4217, lowercase
}

// NewStripeGateway installs the secret key and returns a gateway charging
// amount minor-units of currency per heart.
func NewStripeGateway(secretKey string, amount int64, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{amount: amount, currency: currency}
}

// CreateIntent requests a payment intent with the validated submission as
// metadata.  Automatic payment methods stay enabled so Apple Pay and
// Google Pay work without per-wallet branches.
func (g *StripeGateway) CreateIntent(ctx context.Context, meta map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(g.amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: meta,
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, wrapStripeErr("create intent", err)
	}
	return fromStripe(pi), nil
}

// RetrieveIntent fetches the current state of an intent directly from
// Stripe.  This call is the mandatory server-side re-verification step;
// handlers never act on a client-asserted success flag.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	pi, err := paymentintent.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, wrapStripeErr("retrieve intent", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}

// wrapStripeErr logs the processor's own message with enough context to
// reconcile manually, then folds the failure into ErrUpstream.
func wrapStripeErr(op string, err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		zap.S().Errorw("stripe request failed",
			"op", op, "code", sErr.Code, "msg", sErr.Msg)
		return fmt.Errorf("%w: %s", ErrUpstream, op)
	}
	zap.S().Errorw("stripe request failed", "op", op, "err", err)
	return fmt.Errorf("%w: %s", ErrUpstream, op)
}
