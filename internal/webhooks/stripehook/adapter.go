package stripehook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/hartfieldkennels/kennel-backend/internal/webhooks"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
)

// MetadataPuppyID and MetadataPuppySlug are the session metadata keys set at
// checkout creation; the adapter reads them back to tie events to units.
const (
	MetadataPuppyID   = "puppy_id"
	MetadataPuppySlug = "puppy_slug"
)

type signingClient interface {
	SigningSecret() string
}

// Adapter verifies Stripe webhook deliveries and reduces checkout session
// lifecycle events to canonical events.
type Adapter struct {
	client signingClient
}

// NewAdapter builds the Stripe webhook adapter.
func NewAdapter(client signingClient) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Provider() enums.PaymentProvider {
	return enums.PaymentProviderStripe
}

func (a *Adapter) VerifyAndParse(ctx context.Context, body []byte, headers http.Header) (*webhooks.Event, error) {
	sig := headers.Get("Stripe-Signature")
	if sig == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing")
	}

	event, err := webhook.ConstructEvent(body, sig, a.client.SigningSecret())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verifying stripe signature")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
		return a.sessionEvent(&event)
	case stripe.EventTypeChargeRefunded:
		return a.refundEvent(&event)
	default:
		return nil, nil
	}
}

func (a *Adapter) sessionEvent(event *stripe.Event) (*webhooks.Event, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding checkout session")
	}

	out := &webhooks.Event{
		Provider:          enums.PaymentProviderStripe,
		EventID:           event.ID,
		EventType:         string(event.Type),
		ExternalPaymentID: session.ID,
		PuppyID:           session.Metadata[MetadataPuppyID],
		PuppySlug:         session.Metadata[MetadataPuppySlug],
		AmountCents:       session.AmountTotal,
		Currency:          string(session.Currency),
	}
	if session.ClientReferenceID != "" && out.PuppySlug == "" {
		out.PuppySlug = session.ClientReferenceID
	}
	if session.CustomerDetails != nil {
		out.CustomerName = session.CustomerDetails.Name
		out.CustomerEmail = session.CustomerDetails.Email
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		// Delayed payment methods complete the session before the money
		// moves; the reservation stays pending until the async result.
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			out.Kind = enums.PaymentEventPending
		} else {
			out.Kind = enums.PaymentEventCompleted
		}
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		out.Kind = enums.PaymentEventAsyncSucceeded
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		out.Kind = enums.PaymentEventAsyncFailed
	case stripe.EventTypeCheckoutSessionExpired:
		out.Kind = enums.PaymentEventSessionExpired
	}
	return out, nil
}

// refundEvent links a charge refund back to the originating checkout session.
// Session metadata is propagated onto the payment intent (and from there the
// charge) at session creation.
func (a *Adapter) refundEvent(event *stripe.Event) (*webhooks.Event, error) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding charge")
	}

	externalID := charge.Metadata["checkout_session_id"]
	if externalID == "" && charge.PaymentIntent != nil {
		externalID = charge.PaymentIntent.ID
	}

	out := &webhooks.Event{
		Provider:          enums.PaymentProviderStripe,
		EventID:           event.ID,
		EventType:         string(event.Type),
		Kind:              enums.PaymentEventRefunded,
		ExternalPaymentID: externalID,
		PuppyID:           charge.Metadata[MetadataPuppyID],
		PuppySlug:         charge.Metadata[MetadataPuppySlug],
		AmountCents:       charge.AmountRefunded,
		Currency:          string(charge.Currency),
	}
	if charge.BillingDetails != nil {
		out.CustomerName = charge.BillingDetails.Name
		out.CustomerEmail = charge.BillingDetails.Email
	}
	return out, nil
}
