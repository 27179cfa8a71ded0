package enums

import "fmt"

// ReservationStatus tracks the lifecycle of a single payment attempt on a puppy.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusPaid      ReservationStatus = "paid"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusRefunded  ReservationStatus = "refunded"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusPaid,
	ReservationStatusCancelled,
	ReservationStatusExpired,
	ReservationStatusRefunded,
}

// String implements fmt.Stringer.
func (r ReservationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReservationStatus.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsLive reports whether the reservation still blocks the puppy. Exactly one
// live reservation may exist per puppy at any time.
func (r ReservationStatus) IsLive() bool {
	return r == ReservationStatusPending || r == ReservationStatusPaid
}

// IsTerminal reports whether the automatic path may still move the reservation.
func (r ReservationStatus) IsTerminal() bool {
	switch r {
	case ReservationStatusCancelled, ReservationStatusExpired, ReservationStatusRefunded:
		return true
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
