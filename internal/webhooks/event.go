package webhooks

import (
	"context"
	"net/http"

	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// Event is the canonical shape every verified gateway notification is reduced
// to before it reaches the reservation pipeline. Adapters own the translation;
// nothing downstream looks at provider payloads again.
type Event struct {
	Provider  enums.PaymentProvider
	EventID   string
	EventType string
	Kind      enums.PaymentEventKind

	// ExternalPaymentID is the gateway order/session identifier the
	// reservation was opened under.
	ExternalPaymentID string

	// PuppyID and PuppySlug come from the metadata embedded at order
	// creation. They let the pipeline rebuild a reservation when the
	// webhook outruns the intake write.
	PuppyID   string
	PuppySlug string

	CustomerName  string
	CustomerEmail string
	AmountCents   int64
	Currency      string
}

// Adapter verifies one gateway's webhook delivery and translates it into the
// canonical Event. The raw body must be passed through verification verbatim.
//
// A nil Event with a nil error means the delivery is authentic but of a type
// this system does not act on; the handler acknowledges it without touching
// the pipeline.
type Adapter interface {
	Provider() enums.PaymentProvider
	VerifyAndParse(ctx context.Context, body []byte, headers http.Header) (*Event, error)
}
