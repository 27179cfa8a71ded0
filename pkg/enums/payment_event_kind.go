package enums

import "fmt"

// PaymentEventKind is the canonical shape a gateway notification is reduced to
// before it reaches the reservation state machine. Both gateways translate
// into this closed set.
type PaymentEventKind string

const (
	// PaymentEventCompleted covers an order/session that finished with the
	// deposit captured (card payments, instantly confirmed methods).
	PaymentEventCompleted PaymentEventKind = "payment_completed"
	// PaymentEventPending covers a session opened with a delayed payment
	// method (e.g. bank transfer); the reservation stays pending.
	PaymentEventPending PaymentEventKind = "payment_pending"
	// PaymentEventAsyncSucceeded is the late confirmation for a delayed method.
	PaymentEventAsyncSucceeded PaymentEventKind = "async_payment_succeeded"
	// PaymentEventAsyncFailed is the late failure for a delayed method.
	PaymentEventAsyncFailed PaymentEventKind = "async_payment_failed"
	// PaymentEventSessionExpired means the customer abandoned checkout.
	PaymentEventSessionExpired PaymentEventKind = "session_expired"
	// PaymentEventRefunded means a captured deposit was returned.
	PaymentEventRefunded PaymentEventKind = "refunded"
)

var validPaymentEventKinds = []PaymentEventKind{
	PaymentEventCompleted,
	PaymentEventPending,
	PaymentEventAsyncSucceeded,
	PaymentEventAsyncFailed,
	PaymentEventSessionExpired,
	PaymentEventRefunded,
}

// String implements fmt.Stringer.
func (k PaymentEventKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known PaymentEventKind.
func (k PaymentEventKind) IsValid() bool {
	for _, candidate := range validPaymentEventKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePaymentEventKind converts raw input into a PaymentEventKind.
func ParsePaymentEventKind(value string) (PaymentEventKind, error) {
	for _, candidate := range validPaymentEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment event kind %q", value)
}
