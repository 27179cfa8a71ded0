package paypalhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hartfieldkennels/kennel-backend/internal/webhooks"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/paypal"
)

type verifier interface {
	VerifyWebhookSignature(ctx context.Context, params paypal.WebhookVerifyParams) (bool, error)
}

// Adapter verifies PayPal webhook deliveries against the verification API and
// reduces them to canonical events.
type Adapter struct {
	client verifier
}

// NewAdapter builds the PayPal webhook adapter.
func NewAdapter(client verifier) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Provider() enums.PaymentProvider {
	return enums.PaymentProviderPayPal
}

// notification is the envelope PayPal posts. Resource shape varies by event
// type; only the fields the pipeline needs are decoded.
type notification struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		CustomID string `json:"custom_id"`
		Amount   struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
		PurchaseUnits []struct {
			ReferenceID string `json:"reference_id"`
			CustomID    string `json:"custom_id"`
			Amount      struct {
				CurrencyCode string `json:"currency_code"`
				Value        string `json:"value"`
			} `json:"amount"`
		} `json:"purchase_units"`
		Payer struct {
			EmailAddress string `json:"email_address"`
			Name         struct {
				GivenName string `json:"given_name"`
				Surname   string `json:"surname"`
			} `json:"name"`
		} `json:"payer"`
	} `json:"resource"`
}

// kindForEventType maps the PayPal event names this system acts on. Anything
// else is acknowledged without processing.
var kindForEventType = map[string]enums.PaymentEventKind{
	"CHECKOUT.ORDER.APPROVED":   enums.PaymentEventPending,
	"CHECKOUT.ORDER.COMPLETED":  enums.PaymentEventCompleted,
	"PAYMENT.CAPTURE.COMPLETED": enums.PaymentEventCompleted,
	"PAYMENT.CAPTURE.PENDING":   enums.PaymentEventPending,
	"PAYMENT.CAPTURE.DENIED":    enums.PaymentEventAsyncFailed,
	"PAYMENT.CAPTURE.REFUNDED":  enums.PaymentEventRefunded,
}

func (a *Adapter) VerifyAndParse(ctx context.Context, body []byte, headers http.Header) (*webhooks.Event, error) {
	ok, err := a.client.VerifyWebhookSignature(ctx, paypal.WebhookVerifyParams{
		TransmissionID:   headers.Get(paypal.HeaderTransmissionID),
		TransmissionTime: headers.Get(paypal.HeaderTransmissionTime),
		TransmissionSig:  headers.Get(paypal.HeaderTransmissionSig),
		CertURL:          headers.Get(paypal.HeaderCertURL),
		AuthAlgo:         headers.Get(paypal.HeaderAuthAlgo),
		Body:             json.RawMessage(body),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "paypal signature verification failed")
	}

	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding paypal notification")
	}
	if n.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paypal notification has no id")
	}

	kind, handled := kindForEventType[n.EventType]
	if !handled {
		return nil, nil
	}

	event := &webhooks.Event{
		Provider:          enums.PaymentProviderPayPal,
		EventID:           n.ID,
		EventType:         n.EventType,
		Kind:              kind,
		ExternalPaymentID: externalOrderID(&n),
		PuppyID:           customID(&n),
		PuppySlug:         referenceID(&n),
		CustomerEmail:     n.Resource.Payer.EmailAddress,
		CustomerName:      payerName(&n),
	}
	event.AmountCents, event.Currency = amount(&n)
	return event, nil
}

// externalOrderID resolves the order the notification belongs to. Capture
// resources carry the order under supplementary data; order resources are
// the order itself.
func externalOrderID(n *notification) string {
	if strings.HasPrefix(n.EventType, "PAYMENT.CAPTURE.") {
		if id := n.Resource.SupplementaryData.RelatedIDs.OrderID; id != "" {
			return id
		}
	}
	return n.Resource.ID
}

func customID(n *notification) string {
	if n.Resource.CustomID != "" {
		return n.Resource.CustomID
	}
	if len(n.Resource.PurchaseUnits) > 0 {
		return n.Resource.PurchaseUnits[0].CustomID
	}
	return ""
}

func referenceID(n *notification) string {
	if len(n.Resource.PurchaseUnits) > 0 {
		return n.Resource.PurchaseUnits[0].ReferenceID
	}
	return ""
}

func payerName(n *notification) string {
	name := strings.TrimSpace(n.Resource.Payer.Name.GivenName + " " + n.Resource.Payer.Name.Surname)
	return name
}

func amount(n *notification) (int64, string) {
	value, currency := n.Resource.Amount.Value, n.Resource.Amount.CurrencyCode
	if value == "" && len(n.Resource.PurchaseUnits) > 0 {
		value = n.Resource.PurchaseUnits[0].Amount.Value
		currency = n.Resource.PurchaseUnits[0].Amount.CurrencyCode
	}
	if value == "" {
		return 0, currency
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return 0, currency
	}
	return parsed.Mul(decimal.NewFromInt(100)).IntPart(), currency
}
