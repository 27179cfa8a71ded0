package reservations

import (
	"fmt"

	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// Outcome classifies what a payment event means for one reservation.
type Outcome int

const (
	// OutcomeApply commits the transition and its puppy effect.
	OutcomeApply Outcome = iota
	// OutcomeNoop acknowledges the event without writing; the reservation
	// is already in the target state.
	OutcomeNoop
	// OutcomeAnomaly flags a stale automatic transition against a terminal
	// state. It is recorded and alerted, never applied.
	OutcomeAnomaly
)

// Transition is the decided effect of one payment event.
type Transition struct {
	Outcome     Outcome
	From        enums.ReservationStatus
	To          enums.ReservationStatus
	PuppyStatus enums.PuppyStatus
	// SetPuppy reports whether the puppy row changes with this transition.
	SetPuppy     bool
	Notification enums.NotificationKind
	// Notify reports whether a customer notification is queued.
	Notify bool
}

// automatic holds the only transitions the webhook path may perform.
var automatic = map[enums.PaymentEventKind]struct {
	from enums.ReservationStatus
	to   enums.ReservationStatus
}{
	enums.PaymentEventCompleted:      {enums.ReservationStatusPending, enums.ReservationStatusPaid},
	enums.PaymentEventAsyncSucceeded: {enums.ReservationStatusPending, enums.ReservationStatusPaid},
	enums.PaymentEventAsyncFailed:    {enums.ReservationStatusPending, enums.ReservationStatusCancelled},
	enums.PaymentEventSessionExpired: {enums.ReservationStatusPending, enums.ReservationStatusExpired},
	enums.PaymentEventRefunded:       {enums.ReservationStatusPaid, enums.ReservationStatusRefunded},
}

// Decide maps a payment event against the reservation's current status.
// relistOnRefund is the configured unit-reuse policy for refunds.
func Decide(current enums.ReservationStatus, kind enums.PaymentEventKind, relistOnRefund bool) (Transition, error) {
	if kind == enums.PaymentEventPending {
		// A delayed payment method: the reservation stays pending and the
		// unit stays reserved. Arriving against any other state is stale.
		if current == enums.ReservationStatusPending {
			return Transition{Outcome: OutcomeNoop, From: current, To: current}, nil
		}
		return Transition{Outcome: OutcomeAnomaly, From: current}, nil
	}

	rule, ok := automatic[kind]
	if !ok {
		return Transition{}, fmt.Errorf("unknown payment event kind %q", kind)
	}

	if current == rule.to {
		// Duplicate same-state event (distinct event id): acknowledged, no write.
		return Transition{Outcome: OutcomeNoop, From: current, To: current}, nil
	}
	if current != rule.from {
		return Transition{Outcome: OutcomeAnomaly, From: current, To: rule.to}, nil
	}

	t := Transition{
		Outcome: OutcomeApply,
		From:    rule.from,
		To:      rule.to,
	}
	switch rule.to {
	case enums.ReservationStatusPaid:
		t.SetPuppy = true
		t.PuppyStatus = enums.PuppyStatusSold
		t.Notify = true
		t.Notification = enums.NotificationDepositReceived
	case enums.ReservationStatusCancelled:
		t.SetPuppy = true
		t.PuppyStatus = enums.PuppyStatusAvailable
		t.Notify = true
		t.Notification = enums.NotificationPaymentRetry
	case enums.ReservationStatusExpired:
		t.SetPuppy = true
		t.PuppyStatus = enums.PuppyStatusAvailable
		t.Notify = true
		t.Notification = enums.NotificationSessionExpired
	case enums.ReservationStatusRefunded:
		t.SetPuppy = relistOnRefund
		t.PuppyStatus = enums.PuppyStatusAvailable
		t.Notify = true
		t.Notification = enums.NotificationDepositRefunded
	}
	return t, nil
}

// PuppyEffectForStatus is the inventory effect of an admin-forced status. It
// mirrors the automatic rules so a forced transition leaves the unit
// consistent with what the same status reached automatically would.
func PuppyEffectForStatus(to enums.ReservationStatus, relistOnRefund bool) (enums.PuppyStatus, bool) {
	switch to {
	case enums.ReservationStatusPending:
		return enums.PuppyStatusReserved, true
	case enums.ReservationStatusPaid:
		return enums.PuppyStatusSold, true
	case enums.ReservationStatusCancelled, enums.ReservationStatusExpired:
		return enums.PuppyStatusAvailable, true
	case enums.ReservationStatusRefunded:
		return enums.PuppyStatusAvailable, relistOnRefund
	default:
		return "", false
	}
}
